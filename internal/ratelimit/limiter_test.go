package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestOperationLimiter_AllowExhaustsBurst(t *testing.T) {
	ol := NewOperationLimiter(map[string]Limit{
		OpBrowserInit: {Requests: 2, Window: time.Hour},
	})

	if !ol.Allow(OpBrowserInit) {
		t.Error("Expected first request to be allowed")
	}
	if !ol.Allow(OpBrowserInit) {
		t.Error("Expected second request to be allowed")
	}
	if ol.Allow(OpBrowserInit) {
		t.Error("Expected third request to be rejected")
	}
}

func TestOperationLimiter_CheckDoesNotConsume(t *testing.T) {
	ol := NewOperationLimiter(map[string]Limit{
		OpSearch: {Requests: 1, Window: time.Hour},
	})

	for i := 0; i < 3; i++ {
		if !ol.Check(OpSearch) {
			t.Fatalf("Check %d consumed the only token", i)
		}
	}

	ol.Record(OpSearch)
	if ol.Check(OpSearch) {
		t.Error("Expected Check to fail after Record")
	}
}

func TestOperationLimiter_UnknownOperation(t *testing.T) {
	ol := NewOperationLimiter(map[string]Limit{})

	if !ol.Allow("something_else") {
		t.Error("Unknown operations should always be allowed")
	}
	if err := ol.Wait(context.Background(), "something_else"); err != nil {
		t.Errorf("Wait on unknown operation returned %v", err)
	}
	if _, ok := ol.Usage("something_else"); ok {
		t.Error("Expected no usage for unknown operation")
	}
}

func TestOperationLimiter_WaitHonorsContext(t *testing.T) {
	ol := NewOperationLimiter(map[string]Limit{
		OpProfile: {Requests: 1, Window: time.Hour},
	})
	ol.Record(OpProfile)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := ol.Wait(ctx, OpProfile); err == nil {
		t.Error("Expected Wait to fail when the budget cannot refill before the deadline")
	}
}

func TestDefaultLimits(t *testing.T) {
	ol := NewOperationLimiter(nil)
	usage, ok := ol.Usage(OpAPIRequest)
	if !ok {
		t.Fatal("Expected api_request to have a default budget")
	}
	if usage.MaxRequests != 100 {
		t.Errorf("Expected 100 requests, got %d", usage.MaxRequests)
	}
}
