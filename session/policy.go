// Package session defines the credential payload and the timeout policy
// that turns a syntactically valid credential into an authorized one. The
// policy is pure per call: its only state is the immutable codec secret and
// the two timeout profiles fixed at construction.
package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/edukit/sessionguard/token"
)

// Profile is one pair of timeout windows. A credential is live only while
// both bounds hold: now-lastActive <= Idle and now-issuedAt <= Absolute.
type Profile struct {
	Idle     time.Duration
	Absolute time.Duration
}

// Profiles holds the two timeout variants selectable at issuance. The choice
// is stamped into the credential and immutable for its life; switching
// requires re-authentication.
type Profiles struct {
	Default    Profile
	Remembered Profile
}

// DefaultProfiles returns the platform windows: a short default pair and a
// multi-day remembered pair.
func DefaultProfiles() Profiles {
	return Profiles{
		Default:    Profile{Idle: 30 * time.Minute, Absolute: 12 * time.Hour},
		Remembered: Profile{Idle: 7 * 24 * time.Hour, Absolute: 30 * 24 * time.Hour},
	}
}

// Policy issues and re-validates credentials against the timeout profiles.
type Policy struct {
	codec    *token.Codec
	profiles Profiles
	now      func() time.Time
}

// NewPolicy creates a Policy over the given codec and profiles.
func NewPolicy(codec *token.Codec, profiles Profiles) (*Policy, error) {
	if codec == nil {
		return nil, errors.New("session: codec required")
	}
	for _, p := range []Profile{profiles.Default, profiles.Remembered} {
		if p.Idle <= 0 || p.Absolute <= 0 {
			return nil, errors.New("session: timeout windows must be > 0")
		}
		if p.Idle > p.Absolute {
			return nil, errors.New("session: idle window must not exceed absolute window")
		}
	}

	return &Policy{
		codec:    codec,
		profiles: profiles,
		now:      time.Now,
	}, nil
}

// Profile returns the window pair selected by the remembered flag.
func (p *Policy) Profile(remembered bool) Profile {
	if remembered {
		return p.profiles.Remembered
	}
	return p.profiles.Default
}

// Issue mints a credential for the principal with issuedAt = lastActive =
// now. The email is normalized; the remembered flag selects the timeout
// profile for the life of the credential.
func (p *Policy) Issue(principalID, email, role string, kind Kind, remembered bool) (string, error) {
	if principalID == "" {
		return "", errors.New("session: principal id required")
	}
	if !kind.Valid() {
		return "", errors.New("session: unknown principal kind")
	}

	now := p.now().Unix()
	payload := Payload{
		PrincipalID: principalID,
		Email:       NormalizeEmail(email),
		Role:        role,
		Kind:        kind,
		IssuedAt:    now,
		LastActive:  now,
		Remembered:  remembered,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	return p.codec.Sign(body), nil
}

// Authenticate verifies the credential signature, the principal kind, and
// both timeout bounds. On success it returns the payload with lastActive
// advanced to now together with a re-signed credential the caller must hand
// back to the client; this sliding re-issue is how idle timeout works
// without server-side session storage. Every failure reports ok = false
// with no reason attached.
func (p *Policy) Authenticate(credential string, expected Kind) (payload *Payload, refreshed string, ok bool) {
	body, valid := p.codec.Verify(credential)
	if !valid {
		return nil, "", false
	}

	var pl Payload
	if err := json.Unmarshal(body, &pl); err != nil {
		return nil, "", false
	}

	if !expected.Valid() || pl.Kind != expected {
		return nil, "", false
	}
	if pl.PrincipalID == "" || pl.IssuedAt <= 0 {
		return nil, "", false
	}
	if pl.LastActive < pl.IssuedAt {
		return nil, "", false
	}

	now := p.now()
	profile := p.Profile(pl.Remembered)
	if now.Sub(time.Unix(pl.LastActive, 0)) > profile.Idle {
		return nil, "", false
	}
	if now.Sub(time.Unix(pl.IssuedAt, 0)) > profile.Absolute {
		return nil, "", false
	}

	pl.LastActive = now.Unix()
	if pl.LastActive < pl.IssuedAt {
		// Clock moved backwards past issuance; keep the invariant.
		pl.LastActive = pl.IssuedAt
	}

	refreshedBody, err := json.Marshal(pl)
	if err != nil {
		return nil, "", false
	}

	return &pl, p.codec.Sign(refreshedBody), true
}
