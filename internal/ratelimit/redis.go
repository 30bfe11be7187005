package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a shared CounterStore for multi-instance deployments.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. The prefix namespaces limiter keys
// away from anything else in the instance.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Incr bumps the key atomically and starts the window's expiry on the first
// request. NX on the expire keeps later requests from sliding the window.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := s.prefix + ":" + key

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Do(ctx, "pexpire", redisKey, window.Milliseconds(), "nx")
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}

	return incr.Val(), nil
}
