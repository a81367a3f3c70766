package proxy

import (
	"testing"
	"time"
)

func TestPool_Rotation(t *testing.T) {
	pool := NewPool([]string{"p1", " ", "p2", "p3"}, time.Minute)

	if pool.Len() != 3 {
		t.Fatalf("Expected blank entries to be dropped, got %d proxies", pool.Len())
	}

	for _, want := range []string{"p1", "p2", "p3", "p1"} {
		if p := pool.Next(); p != want {
			t.Errorf("Expected %s, got %s", want, p)
		}
	}
}

func TestPool_SkipsFailed(t *testing.T) {
	pool := NewPool([]string{"p1", "p2", "p3"}, time.Minute)
	now := time.Now()
	pool.now = func() time.Time { return now }

	pool.Next() // p1
	pool.MarkFailed("p2")

	if p := pool.Next(); p != "p3" {
		t.Errorf("Expected p3 (skipping p2), got %s", p)
	}
	if p := pool.Next(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}
	if p := pool.Next(); p != "p3" {
		t.Errorf("Expected p3, got %s", p)
	}

	pool.MarkHealthy("p2")
	if p := pool.Next(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}
	if p := pool.Next(); p != "p2" {
		t.Errorf("Expected p2 after MarkHealthy, got %s", p)
	}
}

func TestPool_CooldownExpires(t *testing.T) {
	pool := NewPool([]string{"p1", "p2"}, time.Minute)
	now := time.Now()
	pool.now = func() time.Time { return now }

	pool.MarkFailed("p1")
	if p := pool.Next(); p != "p2" {
		t.Errorf("Expected p2, got %s", p)
	}

	now = now.Add(2 * time.Minute)
	if p := pool.Next(); p != "p1" {
		t.Errorf("Expected p1 once its cooldown expired, got %s", p)
	}
}

func TestPool_AllFailedReturnsOldest(t *testing.T) {
	pool := NewPool([]string{"p1", "p2"}, time.Minute)
	now := time.Now()
	pool.now = func() time.Time { return now }

	pool.MarkFailed("p2")
	now = now.Add(time.Second)
	pool.MarkFailed("p1")

	if p := pool.Next(); p != "p2" {
		t.Errorf("Expected the longest-failed proxy p2, got %s", p)
	}
}

func TestPool_Empty(t *testing.T) {
	var nilPool *Pool
	if p := nilPool.Next(); p != "" {
		t.Errorf("Expected empty proxy from nil pool, got %s", p)
	}
	if p := NewPool(nil, 0).Next(); p != "" {
		t.Errorf("Expected empty proxy, got %s", p)
	}
}
