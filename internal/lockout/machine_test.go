package lockout

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (Record, error) {
	return Record{}, errors.New("connection refused")
}
func (failingStore) Put(context.Context, string, Record) error {
	return errors.New("connection refused")
}
func (failingStore) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func newTestMachine(cfg Config) (*Machine, *time.Time) {
	machine := New(NewMemoryStore(), cfg)
	current := time.Now()
	machine.now = func() time.Time { return current }
	return machine, &current
}

func TestMachine_ThresholdTriggersLock(t *testing.T) {
	machine, _ := newTestMachine(Config{Threshold: 5, Duration: 15 * time.Minute})
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		status, err := machine.RecordFailure(ctx, "p1")
		if err != nil {
			t.Fatalf("RecordFailure %d failed: %v", i, err)
		}
		if status.Locked {
			t.Fatalf("locked after %d failures, threshold is 5", i)
		}
		if status.FailedAttempts != i {
			t.Fatalf("attempts = %d, want %d", status.FailedAttempts, i)
		}
	}

	status, err := machine.RecordFailure(ctx, "p1")
	if err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if !status.Locked {
		t.Fatal("fifth failure did not lock")
	}
	if status.Remaining < 14*time.Minute || status.Remaining > 15*time.Minute {
		t.Fatalf("remaining = %v, want ~15m", status.Remaining)
	}
}

func TestMachine_LazyExpiryResetsRecord(t *testing.T) {
	machine, current := newTestMachine(Config{Threshold: 3, Duration: 15 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		machine.RecordFailure(ctx, "p1")
	}
	status, _ := machine.Evaluate(ctx, "p1")
	if !status.Locked {
		t.Fatal("expected locked state")
	}

	// Reading after the deadline clears the lock and the counter, with no
	// manual intervention.
	*current = current.Add(15*time.Minute + time.Second)
	status, err := machine.Evaluate(ctx, "p1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if status.Locked {
		t.Fatal("lock survived its deadline")
	}
	if status.FailedAttempts != 0 {
		t.Fatalf("attempts = %d after expiry, want 0", status.FailedAttempts)
	}
}

func TestMachine_FailureAfterLapsedLockStartsFresh(t *testing.T) {
	machine, current := newTestMachine(Config{Threshold: 3, Duration: 10 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		machine.RecordFailure(ctx, "p1")
	}
	*current = current.Add(10*time.Minute + time.Second)

	status, err := machine.RecordFailure(ctx, "p1")
	if err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if status.Locked {
		t.Fatal("first failure after lapse re-locked immediately")
	}
	if status.FailedAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", status.FailedAttempts)
	}
}

func TestMachine_SuccessResetsCounter(t *testing.T) {
	machine, _ := newTestMachine(Config{Threshold: 5, Duration: 15 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		machine.RecordFailure(ctx, "p1")
	}
	if err := machine.RecordSuccess(ctx, "p1"); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}

	status, _ := machine.Evaluate(ctx, "p1")
	if status.FailedAttempts != 0 {
		t.Fatalf("attempts = %d after success, want 0", status.FailedAttempts)
	}
}

func TestMachine_AdminUnlock(t *testing.T) {
	machine, _ := newTestMachine(Config{Threshold: 2, Duration: time.Hour})
	ctx := context.Background()

	machine.RecordFailure(ctx, "p1")
	machine.RecordFailure(ctx, "p1")
	if status, _ := machine.Evaluate(ctx, "p1"); !status.Locked {
		t.Fatal("expected locked state")
	}

	// Unlock clears the lock well before its deadline.
	if err := machine.Unlock(ctx, "p1"); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if status, _ := machine.Evaluate(ctx, "p1"); status.Locked {
		t.Fatal("lock survived administrative unlock")
	}
}

func TestMachine_PrincipalsIndependent(t *testing.T) {
	machine, _ := newTestMachine(Config{Threshold: 2, Duration: time.Hour})
	ctx := context.Background()

	machine.RecordFailure(ctx, "p1")
	machine.RecordFailure(ctx, "p1")

	if status, _ := machine.Evaluate(ctx, "p2"); status.Locked || status.FailedAttempts != 0 {
		t.Fatal("p2 affected by p1's failures")
	}
}

func TestMachine_FailOpenOnStoreOutage(t *testing.T) {
	machine := New(failingStore{}, Config{Threshold: 5, Duration: 15 * time.Minute})
	ctx := context.Background()

	status, err := machine.Evaluate(ctx, "p1")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if status.Locked {
		t.Fatal("fail-open machine reported locked during outage")
	}

	status, err = machine.RecordFailure(ctx, "p1")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if status.Locked {
		t.Fatal("fail-open RecordFailure reported locked during outage")
	}
}

func TestMachine_FailClosedOnStoreOutage(t *testing.T) {
	machine := New(failingStore{}, Config{Threshold: 5, Duration: 15 * time.Minute, FailClosed: true})
	ctx := context.Background()

	status, err := machine.Evaluate(ctx, "p1")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !status.Locked {
		t.Fatal("fail-closed machine reported unlocked during outage")
	}
}

type hangingStore struct{}

func (hangingStore) Get(ctx context.Context, _ string) (Record, error) {
	<-ctx.Done()
	return Record{}, ctx.Err()
}
func (hangingStore) Put(ctx context.Context, _ string, _ Record) error {
	<-ctx.Done()
	return ctx.Err()
}
func (hangingStore) Delete(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestMachine_StoreTimeoutFailsOpen(t *testing.T) {
	machine := New(hangingStore{}, Config{Threshold: 5, Duration: 15 * time.Minute, StoreTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	status, err := machine.Evaluate(ctx, "p1")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if status.Locked {
		t.Fatal("timeout must fail open")
	}
	if time.Since(start) > time.Second {
		t.Fatal("store timeout not applied")
	}
}
