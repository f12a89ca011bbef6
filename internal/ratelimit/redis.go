package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps counters in Redis so the quota is shared across instances.
// INCR carries the per-key atomicity contract; key expiry replaces the sweep.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs the store. An empty prefix defaults to "ratelimit".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Incr implements Store.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	redisKey := fmt.Sprintf("%s:%s", s.prefix, key)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("ratelimit: expire: %w", err)
		}
		return count, time.Now().Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit: ttl: %w", err)
	}
	if ttl < 0 {
		// Expiry got lost (e.g. the key predates a restart); reinstall it.
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("ratelimit: expire: %w", err)
		}
		ttl = window
	}
	return count, time.Now().Add(ttl), nil
}
