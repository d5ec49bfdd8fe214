// Package token implements the signed-credential wire format: an opaque
// body and an HMAC-SHA256 signature over it, each base64url-encoded and
// joined with a dot. The codec is deliberately ignorant of what the body
// contains and of any timeout policy; it answers only "was this minted by
// the holder of the secret and left untouched since".
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

const minSecretLength = 16

// ErrSecretRequired is returned by NewCodec when the signing secret is
// missing or too short. Callers must treat it as fatal at startup: running
// without a secret means running without authentication integrity.
var ErrSecretRequired = errors.New("token: signing secret of at least 16 bytes required")

// Codec signs and verifies opaque credential bodies with a server-held
// secret. A Codec is immutable after construction and safe for concurrent
// use.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec from the given secret. The secret is copied.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSecretRequired
	}

	owned := make([]byte, len(secret))
	copy(owned, secret)

	return &Codec{secret: owned}, nil
}

// Sign produces a credential for the given body:
// base64url(body) "." base64url(hmac-sha256(body, secret)).
func (c *Codec) Sign(body []byte) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	sig := mac.Sum(nil)

	return base64.RawURLEncoding.EncodeToString(body) + "." + base64.RawURLEncoding.EncodeToString(sig)
}

// Verify checks the credential's signature and returns the decoded body.
// Malformed input (missing delimiter, undecodable segments) and signature
// mismatches both report false; no distinction is exposed. The signature
// comparison is constant-time.
func (c *Codec) Verify(credential string) ([]byte, bool) {
	bodyPart, sigPart, found := strings.Cut(credential, ".")
	if !found || bodyPart == "" || sigPart == "" {
		return nil, false
	}

	body, err := base64.RawURLEncoding.DecodeString(bodyPart)
	if err != nil {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, false
	}

	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, false
	}

	return body, true
}
