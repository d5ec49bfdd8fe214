package sessionguard

import (
	"context"
	"errors"
	"fmt"

	"github.com/edukit/sessionguard/internal/lockout"
	"github.com/edukit/sessionguard/session"
)

// Login verifies a password against the principal's stored hash and, on
// success, issues a signed session credential. Failed attempts feed the
// per-principal lockout machine; the rate limiter gates the attempt before
// any credential work happens.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}

	email := session.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" || !req.Kind.Valid() {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	if err := e.loginRateGate(ctx, email, req.Kind); err != nil {
		return nil, err
	}

	record, err := e.provider.GetPrincipalByEmail(ctx, email, req.Kind)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.auditEmit(ctx, AuditEvent{
			EventType:  auditLogin,
			Identifier: email,
			Kind:       string(req.Kind),
			Success:    false,
			Error:      "unknown principal",
		})
		return nil, ErrInvalidCredentials
	}

	if record.Disabled {
		e.metricInc(MetricLoginFailure)
		e.auditEmit(ctx, AuditEvent{
			EventType:   auditLogin,
			PrincipalID: record.PrincipalID,
			Identifier:  email,
			Kind:        string(req.Kind),
			Success:     false,
			Error:       "account disabled",
		})
		return nil, ErrPrincipalDisabled
	}

	status, err := e.lockouts.Evaluate(ctx, record.PrincipalID)
	if err != nil {
		e.metricInc(MetricLockoutUnavailable)
		e.auditEmit(ctx, AuditEvent{
			EventType:   auditLockout,
			PrincipalID: record.PrincipalID,
			Success:     false,
			Error:       err.Error(),
		})
		if status.Locked {
			return nil, fmt.Errorf("%w: %w", ErrLockoutUnavailable, err)
		}
	} else if status.Locked {
		e.metricInc(MetricLockoutRefused)
		e.auditEmit(ctx, AuditEvent{
			EventType:   auditLogin,
			PrincipalID: record.PrincipalID,
			Identifier:  email,
			Kind:        string(req.Kind),
			Success:     false,
			Error:       "account locked",
		})
		return nil, ErrPrincipalLocked
	}

	ok, err := e.hasher.Verify(req.Password, record.PasswordHash)
	if err != nil || !ok {
		return nil, e.recordLoginFailure(ctx, record, email, req.Kind)
	}

	if resetErr := e.lockouts.RecordSuccess(ctx, record.PrincipalID); resetErr != nil {
		e.metricInc(MetricLockoutUnavailable)
	}

	e.maybeUpgradeHash(ctx, record, req.Password)

	remembered := req.RememberMe && e.config.Session.AllowRememberMe
	credential, err := e.policy.Issue(record.PrincipalID, email, record.Role, record.Kind, remembered)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.auditEmit(ctx, AuditEvent{
		EventType:   auditLogin,
		PrincipalID: record.PrincipalID,
		Identifier:  email,
		Kind:        string(req.Kind),
		Success:     true,
	})

	return &LoginResult{
		Credential:  credential,
		PrincipalID: record.PrincipalID,
		Role:        record.Role,
		Remembered:  remembered,
	}, nil
}

func (e *Engine) loginRateGate(ctx context.Context, email string, kind Kind) error {
	if !e.config.RateLimit.Enabled || e.limiter == nil {
		return nil
	}

	identifiers := []struct {
		key  string
		rule Rule
	}{
		{"login:id:" + string(kind) + ":" + email, e.config.RateLimit.LoginPerIdentity},
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		identifiers = append(identifiers, struct {
			key  string
			rule Rule
		}{"login:ip:" + ip, e.config.RateLimit.LoginPerIP})
	}

	for _, id := range identifiers {
		decision, err := e.limiter.Check(ctx, id.key, id.rule)
		if err != nil {
			// Counter backend outage never blocks logins; lockout still
			// bounds brute force per principal.
			continue
		}
		if !decision.Allowed {
			e.metricInc(MetricLoginRateLimited)
			e.auditEmit(ctx, AuditEvent{
				EventType:  auditRateLimit,
				Identifier: id.key,
				Kind:       string(kind),
				Success:    false,
				Error:      "login rate limited",
			})
			return ErrLoginRateLimited
		}
	}

	return nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, record PrincipalRecord, email string, kind Kind) error {
	status, err := e.lockouts.RecordFailure(ctx, record.PrincipalID)
	if err != nil {
		e.metricInc(MetricLockoutUnavailable)
		if errors.Is(err, lockout.ErrStoreUnavailable) && e.config.Lockout.FailClosed {
			return fmt.Errorf("%w: %w", ErrLockoutUnavailable, err)
		}
	}

	e.metricInc(MetricLoginFailure)
	if status.Locked && status.FailedAttempts == e.config.Lockout.Threshold {
		e.metricInc(MetricLockoutTriggered)
		e.auditEmit(ctx, AuditEvent{
			EventType:   auditLockout,
			PrincipalID: record.PrincipalID,
			Identifier:  email,
			Kind:        string(kind),
			Success:     true,
		})
	}

	e.auditEmit(ctx, AuditEvent{
		EventType:   auditLogin,
		PrincipalID: record.PrincipalID,
		Identifier:  email,
		Kind:        string(kind),
		Success:     false,
		Error:       "invalid password",
	})

	return ErrInvalidCredentials
}

func (e *Engine) maybeUpgradeHash(ctx context.Context, record PrincipalRecord, plaintext string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}

	needs, err := e.hasher.NeedsRehash(record.PasswordHash)
	if err != nil || !needs {
		return
	}

	newHash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return
	}

	// Best effort: the login already succeeded, a failed upgrade just
	// keeps the old hash.
	_ = e.provider.UpdatePasswordHash(ctx, record.PrincipalID, newHash)
}
