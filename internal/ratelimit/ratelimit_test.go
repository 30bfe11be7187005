package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiterBoundary(t *testing.T) {
	now := time.Unix(1700000000, 0)
	memStore := NewMemoryStore()
	memStore.now = func() time.Time { return now }

	limiter := New(memStore, 10, 60*time.Second)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		d, err := limiter.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow error: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if d.Remaining != 10-i {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 10-i, d.Remaining)
		}
	}

	// The 11th call within the window is denied.
	d, err := limiter.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if d.Allowed {
		t.Fatalf("11th request in the window should be denied")
	}
	if d.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", d.Remaining)
	}

	// After the window elapses the counter resets.
	now = now.Add(60001 * time.Millisecond)
	d, err = limiter.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("request after window expiry should be allowed")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter := New(NewMemoryStore(), 1, time.Minute)
	ctx := context.Background()

	if d, _ := limiter.Allow(ctx, "a"); !d.Allowed {
		t.Fatalf("first request for key a should pass")
	}
	if d, _ := limiter.Allow(ctx, "a"); d.Allowed {
		t.Fatalf("second request for key a should be denied")
	}
	if d, _ := limiter.Allow(ctx, "b"); !d.Allowed {
		t.Fatalf("key b must not be affected by key a's counter")
	}
}

func TestLimiterDefaultsApplied(t *testing.T) {
	limiter := New(NewMemoryStore(), 0, 0)
	if limiter.limit != DefaultLimit || limiter.window != DefaultWindow {
		t.Fatalf("expected default policy, got limit=%d window=%v", limiter.limit, limiter.window)
	}
}

func TestMemoryStoreConcurrentIncr(t *testing.T) {
	memStore := NewMemoryStore()
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if _, err := memStore.Incr(ctx, "shared", time.Minute); err != nil {
				t.Errorf("Incr error: %v", err)
			}
		}()
	}
	wg.Wait()

	count, err := memStore.Incr(ctx, "shared", time.Minute)
	if err != nil {
		t.Fatalf("Incr error: %v", err)
	}
	if count != goroutines+1 {
		t.Fatalf("expected %d, got %d", goroutines+1, count)
	}
}
