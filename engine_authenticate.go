package sessionguard

import (
	"context"
	"time"
)

// Authenticate validates a session credential for the expected kind and
// returns the signed-in identity along with a refreshed credential whose
// activity timestamp has advanced. Every failure collapses to
// ErrUnauthenticated; callers never learn whether the credential was
// forged, expired, or of the wrong kind.
func (e *Engine) Authenticate(ctx context.Context, credential string, kind Kind) (*AuthResult, error) {
	if e == nil || e.policy == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()

	payload, refreshed, ok := e.policy.Authenticate(credential, kind)
	if !ok {
		e.metricInc(MetricAuthenticateFailure)
		e.auditEmit(ctx, AuditEvent{
			EventType: auditAuthenticate,
			Kind:      string(kind),
			Success:   false,
		})
		return nil, ErrUnauthenticated
	}

	e.metricInc(MetricAuthenticateSuccess)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}

	return &AuthResult{
		Identity: Identity{
			PrincipalID: payload.PrincipalID,
			Email:       payload.Email,
			Role:        payload.Role,
			Kind:        payload.Kind,
			IssuedAt:    time.Unix(payload.IssuedAt, 0),
			LastActive:  time.Unix(payload.LastActive, 0),
			Remembered:  payload.Remembered,
		},
		Refreshed: refreshed,
	}, nil
}
