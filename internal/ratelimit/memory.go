package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowCounter struct {
	count   int64
	started time.Time
}

// MemoryStore is a process-local CounterStore: a map guarded by a mutex,
// suitable for a single-instance deployment.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]windowCounter
	now      func() time.Time
}

// NewMemoryStore builds an empty in-process counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]windowCounter),
		now:      time.Now,
	}
}

// Incr bumps the key's counter, resetting it when the window has elapsed
// since the first request of the current window.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || now.Sub(c.started) >= window {
		c = windowCounter{started: now}
	}
	c.count++
	s.counters[key] = c

	// Opportunistic cleanup keeps the map from growing unbounded under
	// rotating client keys.
	if len(s.counters) > 4096 {
		for k, v := range s.counters {
			if now.Sub(v.started) >= window {
				delete(s.counters, k)
			}
		}
	}

	return c.count, nil
}
