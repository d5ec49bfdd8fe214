// Package lockout implements the per-principal account lockout state
// machine over an external durable record store. The machine has two
// states, Unlocked and Locked; lock expiry is evaluated lazily at access
// time, never by a background timer. Store access is bounded by a short
// timeout, and outages degrade according to the configured fail mode:
// fail-open (no lockout enforcement, the default) or fail-closed (treat the
// principal as locked). Fail-open trades strictness for availability: a
// storage outage must not turn into "nobody can log in".
package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStoreUnavailable indicates the lockout record store is unreachable or
// timed out. The accompanying Status already reflects the fail-mode
// decision; the error exists for auditing the degradation.
var ErrStoreUnavailable = errors.New("lockout store unavailable")

// Record is the durable failure-tracking state of one principal. Absent
// fields are nil, not sentinels.
type Record struct {
	FailedAttempts int
	LockedUntil    *time.Time
	LastFailedAt   *time.Time
}

// Store is the durable record store behind the machine, keyed by principal
// identifier. Get on an unknown principal returns a zero Record.
type Store interface {
	Get(ctx context.Context, principalID string) (Record, error)
	Put(ctx context.Context, principalID string, record Record) error
	Delete(ctx context.Context, principalID string) error
}

// Config holds machine tuning parameters.
type Config struct {
	Threshold    int
	Duration     time.Duration
	StoreTimeout time.Duration
	FailClosed   bool
}

// Status is the machine's answer for one principal at one instant.
type Status struct {
	Locked         bool
	Remaining      time.Duration
	FailedAttempts int
}

// Machine evaluates and transitions lockout state. Concurrent failures for
// the same principal may race on the counter; last write wins. An
// occasional undercount delays lockout by at most one attempt, which is
// acceptable for this threat model, so no distributed lock is taken.
type Machine struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// New creates a Machine over the given store. Zero config fields fall back
// to threshold 5, duration 15m, store timeout 2s.
func New(store Store, cfg Config) *Machine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 15 * time.Minute
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 2 * time.Second
	}

	return &Machine{store: store, cfg: cfg, now: time.Now}
}

// Evaluate reads the principal's state. A lock whose deadline has passed is
// cleared in place (attempts reset to 0) before the answer is formed. On
// store failure the returned Status reflects the fail mode and the error is
// ErrStoreUnavailable-wrapped.
func (m *Machine) Evaluate(ctx context.Context, principalID string) (Status, error) {
	record, err := m.get(ctx, principalID)
	if err != nil {
		return m.unavailableStatus(), err
	}

	now := m.now()
	if record.LockedUntil != nil {
		if now.Before(*record.LockedUntil) {
			return Status{
				Locked:         true,
				Remaining:      record.LockedUntil.Sub(now),
				FailedAttempts: record.FailedAttempts,
			}, nil
		}
		// Lock lapsed: clear both fields before the decision. Best effort;
		// a failed delete leaves a stale record the next read clears again.
		_ = m.delete(ctx, principalID)
		return Status{}, nil
	}

	return Status{FailedAttempts: record.FailedAttempts}, nil
}

// RecordFailure counts one failed authentication. Crossing the threshold
// transitions the principal to Locked with lockedUntil = now + duration;
// the returned Status reflects the post-transition state.
func (m *Machine) RecordFailure(ctx context.Context, principalID string) (Status, error) {
	record, err := m.get(ctx, principalID)
	if err != nil {
		return m.unavailableStatus(), err
	}

	now := m.now()
	if record.LockedUntil != nil && !now.Before(*record.LockedUntil) {
		record = Record{}
	}

	record.FailedAttempts++
	record.LastFailedAt = &now
	if record.LockedUntil == nil && record.FailedAttempts >= m.cfg.Threshold {
		until := now.Add(m.cfg.Duration)
		record.LockedUntil = &until
	}

	if err := m.put(ctx, principalID, record); err != nil {
		return m.unavailableStatus(), err
	}

	status := Status{FailedAttempts: record.FailedAttempts}
	if record.LockedUntil != nil && now.Before(*record.LockedUntil) {
		status.Locked = true
		status.Remaining = record.LockedUntil.Sub(now)
	}
	return status, nil
}

// RecordSuccess resets the principal to Unlocked with zero attempts.
func (m *Machine) RecordSuccess(ctx context.Context, principalID string) error {
	return m.delete(ctx, principalID)
}

// Unlock clears the lock unconditionally, independent of expiry. This is
// the administrative override.
func (m *Machine) Unlock(ctx context.Context, principalID string) error {
	return m.delete(ctx, principalID)
}

func (m *Machine) unavailableStatus() Status {
	if m.cfg.FailClosed {
		return Status{Locked: true, Remaining: m.cfg.Duration}
	}
	return Status{}
}

func (m *Machine) get(ctx context.Context, principalID string) (Record, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	record, err := m.store.Get(ctx, principalID)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return record, nil
}

func (m *Machine) put(ctx context.Context, principalID string, record Record) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if err := m.store.Put(ctx, principalID, record); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (m *Machine) delete(ctx context.Context, principalID string) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if err := m.store.Delete(ctx, principalID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (m *Machine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.cfg.StoreTimeout)
}
