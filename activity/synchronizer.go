package activity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/edukit/sessionguard/session"
)

// LogoutReason tells the logout callback why the session ended locally.
type LogoutReason string

const (
	// ReasonIdleExpired means this context noticed the idle window elapse.
	ReasonIdleExpired LogoutReason = "idle_expired"
	// ReasonExplicit means the user logged out in this context.
	ReasonExplicit LogoutReason = "explicit"
	// ReasonRemote means another context initiated the logout.
	ReasonRemote LogoutReason = "remote"
)

// Options configures a Synchronizer. Zero values fall back to a one-minute
// check interval.
type Options struct {
	// Kind scopes the shared activity timestamp; signals for other kinds
	// are ignored.
	Kind session.Kind
	// IdleWindow is the policy-defined idle timeout this context predicts.
	IdleWindow time.Duration
	// CheckInterval is the periodic expiry check cadence for Run.
	CheckInterval time.Duration
	// OnLogout runs the context's logout side effects (clear local state,
	// surface the session-expired notice, call the server logout endpoint).
	// Invoked at most once per Synchronizer.
	OnLogout func(LogoutReason)
}

// Synchronizer mirrors the shared last-activity timestamp in one browsing
// context. Any qualifying interaction in any context advances the
// timestamp everywhere; the first context to notice the idle window elapse
// forces a logout and broadcasts it. An atomic idempotency flag guarantees
// the logout side effects run once per context even when several contexts
// race to declare expiry.
type Synchronizer struct {
	bus      Bus
	kind     session.Kind
	idle     time.Duration
	interval time.Duration
	origin   string
	onLogout func(LogoutReason)
	now      func() time.Time

	mu           sync.Mutex
	lastActivity time.Time

	loggedOut atomic.Bool
	cancelSub func()
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewSynchronizer creates a Synchronizer subscribed to the bus, with the
// last-activity timestamp initialized to now (creation happens on login,
// which is itself activity).
func NewSynchronizer(bus Bus, opts Options) *Synchronizer {
	interval := opts.CheckInterval
	if interval <= 0 {
		interval = time.Minute
	}

	s := &Synchronizer{
		bus:      bus,
		kind:     opts.Kind,
		idle:     opts.IdleWindow,
		interval: interval,
		origin:   uuid.NewString(),
		onLogout: opts.OnLogout,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	s.lastActivity = s.now()
	s.cancelSub = bus.Subscribe(s.handleSignal)

	return s
}

// Touch records a qualifying local interaction and pings the other
// contexts. No-op once logged out.
func (s *Synchronizer) Touch() {
	if s.loggedOut.Load() {
		return
	}

	now := s.now()
	s.advance(now)
	s.bus.Publish(Signal{Type: SignalActivity, Kind: s.kind, At: now, Origin: s.origin})
}

// LastActivity returns the context's view of the shared timestamp.
func (s *Synchronizer) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// LoggedOut reports whether this context has performed its logout.
func (s *Synchronizer) LoggedOut() bool {
	return s.loggedOut.Load()
}

// Check compares the idle gap against the window and forces a logout when
// it has elapsed. Returns true when this call performed the logout.
func (s *Synchronizer) Check(now time.Time) bool {
	if s.loggedOut.Load() {
		return false
	}

	s.mu.Lock()
	last := s.lastActivity
	s.mu.Unlock()

	if now.Sub(last) <= s.idle {
		return false
	}
	return s.forceLogout(ReasonIdleExpired, true)
}

// Logout performs an explicit user-initiated logout and broadcasts it.
func (s *Synchronizer) Logout() {
	s.forceLogout(ReasonExplicit, true)
}

// Run performs the periodic expiry check until ctx is canceled or Close is
// called. Blocks; callers run it on its own goroutine.
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			if s.Check(s.now()) {
				return
			}
		}
	}
}

// Close detaches the Synchronizer from the bus and stops Run. It does not
// log out.
func (s *Synchronizer) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.cancelSub != nil {
			s.cancelSub()
		}
	})
}

func (s *Synchronizer) handleSignal(signal Signal) {
	if signal.Kind != s.kind {
		return
	}

	switch signal.Type {
	case SignalActivity:
		// Monotonic merge keeps replays and reordering harmless.
		s.advance(signal.At)
	case SignalLogout:
		if signal.Origin == s.origin {
			return
		}
		s.forceLogout(ReasonRemote, false)
	}
}

func (s *Synchronizer) advance(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at.After(s.lastActivity) {
		s.lastActivity = at
	}
}

// forceLogout runs the logout side effects exactly once. The broadcast is
// suppressed for remotely initiated logouts so signals do not echo forever.
func (s *Synchronizer) forceLogout(reason LogoutReason, broadcast bool) bool {
	if !s.loggedOut.CompareAndSwap(false, true) {
		return false
	}

	if broadcast {
		s.bus.Publish(Signal{
			Type:   SignalLogout,
			Kind:   s.kind,
			At:     s.now(),
			Origin: s.origin,
			Reason: string(reason),
		})
	}
	if s.onLogout != nil {
		s.onLogout(reason)
	}
	return true
}
