// Package ratelimit guards the intake endpoint with a fixed-window counter
// per client key.
package ratelimit

import (
	"context"
	"time"
)

// CounterStore increments and returns the counter for a key within the
// current fixed window. The counter resets once the window elapses from the
// first request in it. Implementations must be safe for concurrent use; in a
// multi-instance deployment the store is a shared one (Redis).
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Decision is the outcome of an Allow check.
type Decision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

// Limiter applies a fixed-window policy over an injected CounterStore.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
}

// DefaultPolicy: 10 submissions per 60 seconds per key.
const (
	DefaultLimit  = 10
	DefaultWindow = time.Minute
)

// New builds a Limiter. Zero limit or window fall back to the default policy.
func New(store CounterStore, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow records one request for the key and reports whether it fits the
// window. A denied request still counts one increment but mutates no other
// state; callers treat denial as a retryable client error.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return Decision{}, err
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(l.limit),
		Remaining: remaining,
	}, nil
}
