// Package rate implements fixed-window request counting behind a pluggable
// counter store. The in-process MemoryStore is the default; RedisStore is
// the shared-store implementation for horizontally scaled deployments.
// Counters in MemoryStore are process-local: each instance counts
// independently, multiplying the effective budget by the instance count.
package rate

import (
	"context"
	"time"
)

// Rule bounds one endpoint class: at most MaxRequests per fixed Window.
// Rules are supplied by the caller per check, not configured in the limiter.
type Rule struct {
	MaxRequests int
	Window      time.Duration
}

// Decision is the outcome of one check.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// CounterStore increments the counter for a key inside a fixed window.
// The first increment of a fresh window must create the entry with count 1
// and return the window's reset time; count never reaches zero or below.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter applies rules to identifiers through a CounterStore.
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

// New creates a Limiter over the given store.
func New(store CounterStore) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Check counts one request for the identifier under the rule and decides
// whether it is allowed. A denied decision carries RetryAfter, the wait
// until the window rolls over; exceedance is a recoverable condition, never
// an error.
func (l *Limiter) Check(ctx context.Context, identifier string, rule Rule) (Decision, error) {
	if rule.MaxRequests <= 0 || rule.Window <= 0 {
		return Decision{}, ErrInvalidRule
	}

	count, resetAt, err := l.store.Increment(ctx, identifier, rule.Window)
	if err != nil {
		return Decision{}, err
	}

	if count > int64(rule.MaxRequests) {
		retry := resetAt.Sub(l.now())
		if retry < 0 {
			retry = 0
		}
		return Decision{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retry,
		}, nil
	}

	return Decision{
		Allowed:   true,
		Remaining: rule.MaxRequests - int(count),
		ResetAt:   resetAt,
	}, nil
}
