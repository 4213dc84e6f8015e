package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiter_AllowsUpToLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: func() time.Time { return now }})

	for i := 0; i < 100; i++ {
		decision, err := limiter.Allow(context.Background(), "client-a", 100, 15*time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d denied below limit", i)
		}
	}

	decision, err := limiter.Allow(context.Background(), "client-a", 100, 15*time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("request above limit was admitted")
	}
	if decision.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", decision.Remaining)
	}
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: func() time.Time { return now }})

	for i := 0; i < 3; i++ {
		if _, err := limiter.Allow(context.Background(), "client-a", 2, time.Minute); err != nil {
			t.Fatalf("allow: %v", err)
		}
	}

	now = now.Add(time.Minute + time.Second)
	decision, err := limiter.Allow(context.Background(), "client-a", 2, time.Minute)
	if err != nil {
		t.Fatalf("allow after reset: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected fresh window to admit")
	}
	if decision.Remaining != 1 {
		t.Fatalf("expected counter reset to 1 used, remaining 1, got %d", decision.Remaining)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})

	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(context.Background(), "client-a", 2, time.Minute); err != nil {
			t.Fatalf("allow: %v", err)
		}
	}
	decision, err := limiter.Allow(context.Background(), "client-b", 2, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("other client should not share the window")
	}
}

func TestMemoryLimiter_ConcurrentIncrementIsAtomic(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})

	const workers = 50
	const limit = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := limiter.Allow(context.Background(), "client-a", limit, time.Minute)
			if err != nil {
				t.Errorf("allow: %v", err)
				return
			}
			if decision.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Fatalf("expected exactly %d admissions, got %d", limit, admitted)
	}
}

func TestMemoryLimiter_CapacityGC(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryLimiterConfig{
		Now:     func() time.Time { return now },
		MaxKeys: 2,
	})

	if _, err := limiter.Allow(context.Background(), "a", 1, time.Minute); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if _, err := limiter.Allow(context.Background(), "b", 1, time.Minute); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if _, err := limiter.Allow(context.Background(), "c", 1, time.Minute); err == nil {
		t.Fatalf("expected capacity error with live windows")
	}

	now = now.Add(2 * time.Minute)
	if _, err := limiter.Allow(context.Background(), "c", 1, time.Minute); err != nil {
		t.Fatalf("expected expired windows to be collected: %v", err)
	}
}
