// Package middleware exposes HTTP middleware adapters that bind sessionguard
// credentials to cookies.
//
// # Guards
//
//   - [Guard]: reads the session cookie, calls Engine.Authenticate, and
//     writes back the refreshed credential.
//
// Each guard injects the authenticated identity into the request context via
// [sessionguard.WithIdentity].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement session logic itself; all decisions are delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Sign or verify credentials directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make session decisions beyond pass/reject from Engine.Authenticate.
package middleware
