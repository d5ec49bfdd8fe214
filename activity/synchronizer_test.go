package activity

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edukit/sessionguard/session"
)

func newTestSynchronizer(t *testing.T, bus Bus, kind session.Kind, idle time.Duration, onLogout func(LogoutReason)) *Synchronizer {
	t.Helper()

	s := NewSynchronizer(bus, Options{
		Kind:       kind,
		IdleWindow: idle,
		OnLogout:   onLogout,
	})
	t.Cleanup(s.Close)
	return s
}

func TestSynchronizer_ActivityPropagatesAcrossContexts(t *testing.T) {
	bus := NewMemoryBus()
	tab1 := newTestSynchronizer(t, bus, session.KindStudent, 30*time.Minute, nil)
	tab2 := newTestSynchronizer(t, bus, session.KindStudent, 30*time.Minute, nil)

	// Age tab2's view, then interact in tab1 only.
	past := time.Now().Add(-20 * time.Minute)
	tab2.mu.Lock()
	tab2.lastActivity = past
	tab2.mu.Unlock()

	tab1.Touch()

	if got := tab2.LastActivity(); !got.After(past) {
		t.Fatal("activity in tab1 did not advance tab2's timestamp")
	}
}

func TestSynchronizer_KindsIsolated(t *testing.T) {
	bus := NewMemoryBus()
	student := newTestSynchronizer(t, bus, session.KindStudent, 30*time.Minute, nil)
	admin := newTestSynchronizer(t, bus, session.KindAdmin, 30*time.Minute, nil)

	past := time.Now().Add(-20 * time.Minute)
	admin.mu.Lock()
	admin.lastActivity = past
	admin.mu.Unlock()

	student.Touch()

	if got := admin.LastActivity(); got.After(past) {
		t.Fatal("student activity advanced the admin timestamp")
	}
}

func TestSynchronizer_IdleExpiryForcesCoordinatedLogout(t *testing.T) {
	bus := NewMemoryBus()
	var logouts1, logouts2 atomic.Int32
	var reason1 LogoutReason

	tab1 := newTestSynchronizer(t, bus, session.KindStudent, 30*time.Minute, func(r LogoutReason) {
		logouts1.Add(1)
		reason1 = r
	})
	tab2 := newTestSynchronizer(t, bus, session.KindStudent, 30*time.Minute, func(LogoutReason) {
		logouts2.Add(1)
	})

	// Not yet expired.
	if tab1.Check(time.Now().Add(29 * time.Minute)) {
		t.Fatal("logout before the idle window elapsed")
	}

	// tab1 notices expiry first; tab2 follows via the bus.
	if !tab1.Check(time.Now().Add(31 * time.Minute)) {
		t.Fatal("expected tab1 to perform the logout")
	}
	if reason1 != ReasonIdleExpired {
		t.Fatalf("reason = %q, want idle_expired", reason1)
	}
	if !tab2.LoggedOut() {
		t.Fatal("tab2 did not receive the logout signal")
	}
	if logouts1.Load() != 1 || logouts2.Load() != 1 {
		t.Fatalf("logout callbacks = %d/%d, want 1/1", logouts1.Load(), logouts2.Load())
	}
}

func TestSynchronizer_LogoutIdempotent(t *testing.T) {
	bus := NewMemoryBus()
	var logouts atomic.Int32
	tab := newTestSynchronizer(t, bus, session.KindStudent, 30*time.Minute, func(LogoutReason) {
		logouts.Add(1)
	})

	expired := time.Now().Add(time.Hour)
	tab.Check(expired)
	tab.Check(expired)
	tab.Logout()

	// Replayed logout signals are also no-ops beyond the first application.
	bus.Publish(Signal{Type: SignalLogout, Kind: session.KindStudent, At: time.Now(), Origin: "elsewhere"})
	bus.Publish(Signal{Type: SignalLogout, Kind: session.KindStudent, At: time.Now(), Origin: "elsewhere"})

	if got := logouts.Load(); got != 1 {
		t.Fatalf("logout side effects ran %d times, want 1", got)
	}
}

func TestSynchronizer_ConcurrentExpiryRunsSideEffectsOncePerContext(t *testing.T) {
	bus := NewMemoryBus()
	const contexts = 8
	var total atomic.Int32

	tabs := make([]*Synchronizer, contexts)
	for i := range tabs {
		tabs[i] = newTestSynchronizer(t, bus, session.KindStudent, time.Minute, func(LogoutReason) {
			total.Add(1)
		})
	}

	// Every context races to declare expiry at once.
	expired := time.Now().Add(time.Hour)
	var wg sync.WaitGroup
	for _, tab := range tabs {
		wg.Add(1)
		go func(s *Synchronizer) {
			defer wg.Done()
			s.Check(expired)
		}(tab)
	}
	wg.Wait()

	if got := total.Load(); got != contexts {
		t.Fatalf("logout side effects ran %d times across %d contexts", got, contexts)
	}
	for i, tab := range tabs {
		if !tab.LoggedOut() {
			t.Fatalf("context %d missed the coordinated logout", i)
		}
	}
}

func TestSynchronizer_TouchAfterLogoutIsNoOp(t *testing.T) {
	bus := NewMemoryBus()
	tab1 := newTestSynchronizer(t, bus, session.KindStudent, time.Minute, nil)
	tab2 := newTestSynchronizer(t, bus, session.KindStudent, time.Minute, nil)

	tab1.Logout()

	past := tab2.LastActivity()
	tab1.Touch()
	if tab2.LastActivity().After(past) {
		t.Fatal("logged-out context still publishing activity")
	}
}

func TestSynchronizer_ExplicitLogoutReachesOtherContexts(t *testing.T) {
	bus := NewMemoryBus()
	var reason2 LogoutReason
	tab1 := newTestSynchronizer(t, bus, session.KindStudent, 30*time.Minute, nil)
	tab2 := newTestSynchronizer(t, bus, session.KindStudent, 30*time.Minute, func(r LogoutReason) {
		reason2 = r
	})

	tab1.Logout()

	if !tab2.LoggedOut() {
		t.Fatal("explicit logout did not reach tab2")
	}
	if reason2 != ReasonRemote {
		t.Fatalf("tab2 reason = %q, want remote", reason2)
	}
}

func TestMemoryBus_CancelStopsDelivery(t *testing.T) {
	bus := NewMemoryBus()
	var delivered atomic.Int32

	cancel := bus.Subscribe(func(Signal) { delivered.Add(1) })
	bus.Publish(Signal{Type: SignalActivity, Kind: session.KindStudent})
	cancel()
	cancel() // idempotent
	bus.Publish(Signal{Type: SignalActivity, Kind: session.KindStudent})

	if got := delivered.Load(); got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}
}
