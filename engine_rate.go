package sessionguard

import (
	"context"
	"fmt"
)

// CheckRate applies a fixed-window rule to an arbitrary identifier, for
// endpoints beyond login (quiz submissions, report exports). The caller
// owns the identifier scheme; distinct identifiers never share a budget.
func (e *Engine) CheckRate(ctx context.Context, identifier string, rule Rule) (Decision, error) {
	if e == nil || e.limiter == nil {
		return Decision{}, ErrEngineNotReady
	}

	decision, err := e.limiter.Check(ctx, identifier, rule)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrRateLimitUnavailable, err)
	}

	if !decision.Allowed {
		e.metricInc(MetricRateLimitHit)
		e.auditEmit(ctx, AuditEvent{
			EventType:  auditRateLimit,
			Identifier: identifier,
			Success:    false,
			Error:      "rate limited",
		})
	}

	return decision, nil
}
