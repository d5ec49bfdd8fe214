package sessionguard

import (
	"context"
	"time"

	"github.com/edukit/sessionguard/internal/lockout"
	"github.com/edukit/sessionguard/internal/rate"
	"github.com/edukit/sessionguard/session"
)

// Kind partitions admin and student sessions. A credential issued for one
// kind never authenticates the other.
type Kind = session.Kind

const (
	// KindAdmin is an exported constant or variable used by the session engine.
	KindAdmin = session.KindAdmin
	// KindStudent is an exported constant or variable used by the session engine.
	KindStudent = session.KindStudent
)

// Identity is the authenticated view of a session credential, returned by
// [Engine.Authenticate] and carried in request context by the transport
// middleware.
type Identity struct {
	PrincipalID string
	Email       string
	Role        string
	Kind        Kind
	IssuedAt    time.Time
	LastActive  time.Time
	Remembered  bool
}

// PrincipalRecord is the account record returned by [PrincipalProvider].
// It carries the credential hash and the attributes signed into issued
// credentials.
type PrincipalRecord struct {
	PrincipalID  string
	Email        string
	PasswordHash string
	Role         string
	Kind         Kind
	Disabled     bool
}

// PrincipalProvider is the interface callers implement to integrate
// sessionguard with their account database. Lookup is by normalized email.
type PrincipalProvider interface {
	GetPrincipalByEmail(ctx context.Context, email string, kind Kind) (PrincipalRecord, error)
	UpdatePasswordHash(ctx context.Context, principalID string, newHash string) error
}

// LoginRequest is the input for [Engine.Login].
type LoginRequest struct {
	Email      string
	Password   string
	Kind       Kind
	RememberMe bool
}

// LoginResult is returned by [Engine.Login] on success. Credential is the
// signed session credential to set as a cookie.
type LoginResult struct {
	Credential  string
	PrincipalID string
	Role        string
	Remembered  bool
}

// AuthResult is returned by [Engine.Authenticate]. Refreshed carries the
// re-signed credential with an advanced activity timestamp; transports
// should write it back to the client.
type AuthResult struct {
	Identity  Identity
	Refreshed string
}

// LockState is a read-only view of a principal's lockout status, returned
// by [Engine.LockState].
type LockState struct {
	Locked         bool
	Remaining      time.Duration
	FailedAttempts int
}

// TicketClaims is the decoded view of a redeemed one-time ticket.
type TicketClaims struct {
	PrincipalID string
	Purpose     string
	TicketID    string
	ExpiresAt   time.Time
}

// LockoutRecord is the per-principal failure state persisted by a
// [LockoutStore].
type LockoutRecord = lockout.Record

// LockoutStore persists lockout records keyed by principal.
type LockoutStore = lockout.Store

// NewMemoryLockoutStore creates an in-process [LockoutStore] for tests and
// single-node deployments.
func NewMemoryLockoutStore() LockoutStore {
	return lockout.NewMemoryStore()
}

// Rule bounds request volume for one identifier over a fixed window.
type Rule = rate.Rule

// Decision is the outcome of a rate limit check.
type Decision = rate.Decision

// CounterStore backs the rate limiter with windowed counters.
type CounterStore = rate.CounterStore

// NewMemoryCounterStore creates an in-process [CounterStore] for tests and
// single-node deployments.
func NewMemoryCounterStore() CounterStore {
	return rate.NewMemoryStore()
}
