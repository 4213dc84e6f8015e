package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"fieldserve/internal/domain"
)

// memoryLimiter keeps one fixed window per client key. Windows are
// created lazily and replaced once their reset time has passed; a GC
// sweep keeps the table under maxKeys when new keys keep arriving.
type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*clientWindow
	maxKeys int
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
}

func NewMemoryLimiter(cfg MemoryLimiterConfig) domain.RateLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &memoryLimiter{
		now:     cfg.Now,
		windows: make(map[string]*clientWindow),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.windows[key]
	if ok && now.After(current.resetAt) {
		delete(m.windows, key)
		current = nil
		ok = false
	}
	if !ok {
		if len(m.windows) >= m.maxKeys {
			m.gc(now)
		}
		if len(m.windows) >= m.maxKeys {
			return domain.RateLimitDecision{}, errors.New("rate limiter capacity exceeded")
		}
		current = &clientWindow{resetAt: now.Add(window)}
		m.windows[key] = current
	}

	if current.count < limit {
		current.count++
		return domain.RateLimitDecision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - current.count,
			ResetAt:   current.resetAt,
		}, nil
	}

	return domain.RateLimitDecision{
		Allowed: false,
		Limit:   limit,
		ResetAt: current.resetAt,
	}, nil
}

func (m *memoryLimiter) gc(now time.Time) {
	for key, current := range m.windows {
		if now.After(current.resetAt) {
			delete(m.windows, key)
		}
	}
}
