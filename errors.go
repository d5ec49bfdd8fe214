package sessionguard

import "errors"

var (
	// ErrUnauthenticated is an exported constant or variable used by the session engine.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPrincipalNotFound is an exported constant or variable used by the session engine.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrPrincipalLocked is an exported constant or variable used by the session engine.
	ErrPrincipalLocked = errors.New("account locked")
	// ErrPrincipalDisabled is an exported constant or variable used by the session engine.
	ErrPrincipalDisabled = errors.New("account disabled")
	// ErrLoginRateLimited is an exported constant or variable used by the session engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRateLimited is an exported constant or variable used by the session engine.
	ErrRateLimited = errors.New("rate limited")
	// ErrLockoutUnavailable is an exported constant or variable used by the session engine.
	ErrLockoutUnavailable = errors.New("lockout backend unavailable")
	// ErrRateLimitUnavailable is an exported constant or variable used by the session engine.
	ErrRateLimitUnavailable = errors.New("rate limit backend unavailable")
	// ErrTicketsDisabled is an exported constant or variable used by the session engine.
	ErrTicketsDisabled = errors.New("tickets disabled")
	// ErrTicketInvalid is an exported constant or variable used by the session engine.
	ErrTicketInvalid = errors.New("invalid ticket")
	// ErrTicketRedeemed is an exported constant or variable used by the session engine.
	ErrTicketRedeemed = errors.New("ticket already redeemed")
	// ErrTicketUnavailable is an exported constant or variable used by the session engine.
	ErrTicketUnavailable = errors.New("ticket backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the session engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
