package sessionguard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edukit/sessionguard/internal/lockout"
)

const (
	redisLockoutPrefix = "sgl:"

	// Failure records older than this are irrelevant; the TTL bounds
	// stale counters for principals that never log in again.
	redisLockoutTTL = 24 * time.Hour
)

// RedisLockoutStore persists lockout records in Redis so that all
// application instances observe the same failure counts and lock state.
type RedisLockoutStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisLockoutStore wraps a Redis client as a [LockoutStore].
func NewRedisLockoutStore(client redis.UniversalClient) *RedisLockoutStore {
	return &RedisLockoutStore{
		client: client,
		prefix: redisLockoutPrefix,
		ttl:    redisLockoutTTL,
	}
}

// Get returns the record for a principal, or a zero record when none is
// stored.
func (s *RedisLockoutStore) Get(ctx context.Context, principalID string) (lockout.Record, error) {
	raw, err := s.client.Get(ctx, s.prefix+principalID).Bytes()
	if errors.Is(err, redis.Nil) {
		return lockout.Record{}, nil
	}
	if err != nil {
		return lockout.Record{}, err
	}

	var record lockout.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return lockout.Record{}, err
	}

	return record, nil
}

// Put stores the record with a bounded TTL.
func (s *RedisLockoutStore) Put(ctx context.Context, principalID string, record lockout.Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.prefix+principalID, raw, s.ttl).Err()
}

// Delete removes the record, clearing both the lock and the failure count.
func (s *RedisLockoutStore) Delete(ctx context.Context, principalID string) error {
	return s.client.Del(ctx, s.prefix+principalID).Err()
}
