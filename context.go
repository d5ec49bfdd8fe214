package sessionguard

import "context"

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type identityContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for per-IP rate limiting and audit logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx for audit
// metadata.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithIdentity attaches an authenticated Identity to ctx. Transport
// middleware sets it after a successful credential check.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the Identity stored by WithIdentity, or nil
// when the request is unauthenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}

	identity, _ := ctx.Value(identityContextKey{}).(*Identity)
	return identity
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}
