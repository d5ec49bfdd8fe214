package sessionguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ticketClaims is the signed body of a one-time ticket. Purpose scopes the
// ticket to a single flow (password reset, enrollment confirmation) so a
// ticket minted for one flow cannot be replayed against another.
type ticketClaims struct {
	Purpose string `json:"pur"`
	jwt.RegisteredClaims
}

type ticketOffice struct {
	client redis.UniversalClient
	cfg    TicketConfig
	secret []byte
	now    func() time.Time
}

func newTicketOffice(client redis.UniversalClient, cfg TicketConfig, secret []byte) *ticketOffice {
	return &ticketOffice{
		client: client,
		cfg:    cfg,
		secret: cloneBytes(secret),
		now:    time.Now,
	}
}

func (t *ticketOffice) issue(principalID, purpose string) (string, error) {
	now := t.now()
	claims := ticketClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *ticketOffice) redeem(ctx context.Context, raw string) (*TicketClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &ticketClaims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrTicketInvalid
	}

	claims, ok := parsed.Claims.(*ticketClaims)
	if !ok || claims.ID == "" || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrTicketInvalid
	}

	// SETNX marks the ticket consumed. The redemption key lives until the
	// ticket itself expires; after that the signature check alone rejects it.
	key := t.cfg.RedisPrefix + ":used:" + claims.ID
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil, ErrTicketInvalid
	}

	set, err := t.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTicketUnavailable, err)
	}
	if !set {
		return nil, ErrTicketRedeemed
	}

	return &TicketClaims{
		PrincipalID: claims.Subject,
		Purpose:     claims.Purpose,
		TicketID:    claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// IssueTicket mints a short-lived single-use ticket bound to a principal
// and purpose, for out-of-band flows delivered by email.
func (e *Engine) IssueTicket(ctx context.Context, principalID, purpose string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if e.tickets == nil {
		return "", ErrTicketsDisabled
	}
	if principalID == "" || purpose == "" {
		return "", ErrTicketInvalid
	}

	ticket, err := e.tickets.issue(principalID, purpose)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricTicketIssued)
	e.auditEmit(ctx, AuditEvent{
		EventType:   auditTicketIssued,
		PrincipalID: principalID,
		Success:     true,
		Metadata:    map[string]string{"purpose": purpose},
	})

	return ticket, nil
}

// RedeemTicket validates and consumes a ticket. Exactly one redemption
// succeeds per ticket; replays return ErrTicketRedeemed.
func (e *Engine) RedeemTicket(ctx context.Context, raw string) (*TicketClaims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.tickets == nil {
		return nil, ErrTicketsDisabled
	}

	claims, err := e.tickets.redeem(ctx, raw)
	if err != nil {
		if errors.Is(err, ErrTicketRedeemed) {
			e.metricInc(MetricTicketReplay)
			e.auditEmit(ctx, AuditEvent{
				EventType: auditTicketRedeemed,
				Success:   false,
				Error:     "ticket replay",
			})
		}
		return nil, err
	}

	e.metricInc(MetricTicketRedeemed)
	e.auditEmit(ctx, AuditEvent{
		EventType:   auditTicketRedeemed,
		PrincipalID: claims.PrincipalID,
		Success:     true,
		Metadata:    map[string]string{"purpose": claims.Purpose},
	})

	return claims, nil
}
