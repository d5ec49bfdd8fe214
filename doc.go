// Package sessionguard is the session and security control plane of the
// edukit education platform: stateless signed-session credentials with a
// dual-timeout lifecycle, a persistent account-lockout state machine,
// fixed-window request rate limiting, and cross-context activity
// synchronization for coordinated idle logout.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// sessionguard is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Identity, LockState, Decision, etc.). Credential
// signing lives in token/, timeout policy in session/, cross-context
// coordination in activity/; lockout and rate-limit machinery live under
// internal/ and are reachable only through the Engine and the re-exported
// store interfaces.
//
// # What this package must NOT do
//
//   - Decide business authorization. It answers "is this request
//     authenticated as this principal kind", nothing more.
//   - Hold server-side session state. A credential is self-contained; the
//     only durable state is the lockout record behind [LockoutStore].
//   - Leak why a credential was rejected. Every verification failure is
//     normalized to [ErrUnauthenticated].
//
// # Performance contract
//
// Authenticate is the hot path: HMAC recomputation and two timestamp
// comparisons, no I/O. Login is allowed one lockout-store round trip plus one
// counter-store round trip per call.
package sessionguard
