package reqctx

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestWithRequestContext_GeneratesID(t *testing.T) {
	ctx := WithRequestContext(context.Background())
	rc := GetRequestContext(ctx)

	if _, err := uuid.Parse(rc.RequestID); err != nil {
		t.Errorf("Expected a UUID request id, got %q", rc.RequestID)
	}
	if rc.StartTime.IsZero() {
		t.Error("Expected start time to be set")
	}

	other := GetRequestContext(WithRequestContext(context.Background()))
	if other.RequestID == rc.RequestID {
		t.Error("Expected distinct request ids")
	}
}

func TestWithRequestID_KeepsGivenID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc-123")
	if got := GetRequestContext(ctx).RequestID; got != "abc-123" {
		t.Errorf("Expected abc-123, got %q", got)
	}
}

func TestGetRequestContext_Missing(t *testing.T) {
	if got := GetRequestContext(context.Background()).RequestID; got != "unknown" {
		t.Errorf("Expected unknown, got %q", got)
	}
}

func TestNewRequestError(t *testing.T) {
	base := errors.New("disk full")
	err := NewRequestError(WithRequestID(context.Background(), "req-1"), base)

	if err.Error() != "[req-1] disk full" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("Expected wrapped error to unwrap")
	}
}
