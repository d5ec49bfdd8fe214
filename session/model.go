package session

import "strings"

// Kind discriminates the two principal populations of the platform. A
// credential minted for one kind never validates as the other.
type Kind string

const (
	// KindAdmin is the administrative principal kind.
	KindAdmin Kind = "admin"
	// KindStudent is the student principal kind.
	KindStudent Kind = "student"
)

// Valid reports whether k is a known principal kind.
func (k Kind) Valid() bool {
	return k == KindAdmin || k == KindStudent
}

// Payload is the authenticated identity carried inside a credential,
// serialized as the credential body. Timestamps are unix seconds.
type Payload struct {
	PrincipalID string `json:"pid"`
	Email       string `json:"eml"`
	Role        string `json:"rol,omitempty"`
	Kind        Kind   `json:"knd"`
	IssuedAt    int64  `json:"iat"`
	LastActive  int64  `json:"lat"`
	Remembered  bool   `json:"rem,omitempty"`
}

// NormalizeEmail lowercases and trims a contact identifier. Applied once at
// issuance so every credential carries the canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
