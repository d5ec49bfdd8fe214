package sessionguard

import (
	"context"
	"time"

	"github.com/edukit/sessionguard/internal/lockout"
	"github.com/edukit/sessionguard/internal/rate"
	"github.com/edukit/sessionguard/password"
	"github.com/edukit/sessionguard/session"
)

// Engine defines a public type used by sessionguard APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config   Config
	policy   *session.Policy
	provider PrincipalProvider
	lockouts *lockout.Machine
	limiter  *rate.Limiter
	hasher   *password.Hasher
	tickets  *ticketOffice
	audit    *auditDispatcher
	metrics  *Metrics
}

// Close stops the audit dispatcher, draining buffered events first.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// IdleWindow returns the idle timeout for the given remember-me choice.
// Transport middleware uses it as the cookie MaxAge.
func (e *Engine) IdleWindow(remembered bool) time.Duration {
	if e == nil || e.policy == nil {
		return 0
	}
	return e.policy.Profile(remembered && e.config.Session.AllowRememberMe).Idle
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) auditEmit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		event.Metadata["user_agent"] = ua
	}
	e.audit.Emit(ctx, event)
}
