package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "sgrl:"

// RedisStore is the shared CounterStore for multi-instance deployments:
// INCR with an expiry set on the first hit of each window.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisStore creates a RedisStore backed by the given client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Increment implements CounterStore.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	redisKey := redisKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}

	// Fixed-window semantics: the expiry is set only for the first hit.
	if count == 1 {
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
		}
		return count, s.now().Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}
	if ttl < 0 {
		// Key lost its expiry (flush or eviction race); restore the window.
		ttl = window
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
		}
	}

	return count, s.now().Add(ttl), nil
}
