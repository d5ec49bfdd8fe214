package sessionguard

import (
	"context"
	"fmt"
)

// LockState reports whether a principal is currently locked out and for how
// much longer. During a store outage the returned state reflects the
// configured fail mode and the error carries ErrLockoutUnavailable.
func (e *Engine) LockState(ctx context.Context, principalID string) (LockState, error) {
	if e == nil || e.lockouts == nil {
		return LockState{}, ErrEngineNotReady
	}

	status, err := e.lockouts.Evaluate(ctx, principalID)
	state := LockState{
		Locked:         status.Locked,
		Remaining:      status.Remaining,
		FailedAttempts: status.FailedAttempts,
	}
	if err != nil {
		e.metricInc(MetricLockoutUnavailable)
		return state, fmt.Errorf("%w: %w", ErrLockoutUnavailable, err)
	}

	return state, nil
}

// UnlockPrincipal clears a lockout immediately, resetting the failure
// counter. Intended for support tooling.
func (e *Engine) UnlockPrincipal(ctx context.Context, principalID string) error {
	if e == nil || e.lockouts == nil {
		return ErrEngineNotReady
	}

	if err := e.lockouts.Unlock(ctx, principalID); err != nil {
		e.metricInc(MetricLockoutUnavailable)
		return fmt.Errorf("%w: %w", ErrLockoutUnavailable, err)
	}

	e.metricInc(MetricUnlock)
	e.auditEmit(ctx, AuditEvent{
		EventType:   auditUnlock,
		PrincipalID: principalID,
		Success:     true,
	})

	return nil
}
