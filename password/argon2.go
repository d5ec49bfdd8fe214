// Package password hashes and verifies principal passwords with argon2id
// in PHC string format.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 8
	algorithmID           = "argon2id"
)

// Params controls the argon2id cost surface. Raising costs after deployment
// is safe; existing hashes keep their recorded parameters and NeedsRehash
// reports which ones fall below the current floor.
type Params struct {
	MemoryKB    uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the cost profile used when no explicit tuning is
// supplied. The values follow the OWASP argon2id baseline.
func DefaultParams() Params {
	return Params{
		MemoryKB:    64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher produces and checks PHC-encoded argon2id hashes. A Hasher is
// immutable after construction and safe for concurrent use.
type Hasher struct {
	params Params
}

type phcFields struct {
	memoryKB    uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	digest      []byte
}

// NewHasher validates the cost parameters and returns a ready Hasher.
func NewHasher(params Params) (*Hasher, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	return &Hasher{params: params}, nil
}

// Hash derives an argon2id digest over the raw password bytes and encodes
// it as a self-describing PHC string. No Unicode normalization is applied.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPassBytes {
		return "", fmt.Errorf("password must be at least %d bytes", minPassBytes)
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	digest := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Iterations,
		h.params.MemoryKB,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.MemoryKB,
		h.params.Iterations,
		h.params.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(digest),
	), nil
}

// Verify recomputes the digest with the parameters recorded in the encoded
// hash and compares in constant time. A malformed hash is an error, not a
// mismatch.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	fields, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		fields.salt,
		fields.iterations,
		fields.memoryKB,
		fields.parallelism,
		uint32(len(fields.digest)),
	)

	return subtle.ConstantTimeCompare(computed, fields.digest) == 1, nil
}

// NeedsRehash reports whether the encoded hash was produced with weaker
// parameters than the Hasher currently enforces.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	fields, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	switch {
	case h.params.MemoryKB > fields.memoryKB:
		return true, nil
	case h.params.Iterations > fields.iterations:
		return true, nil
	case h.params.Parallelism > fields.parallelism:
		return true, nil
	case h.params.KeyLength != uint32(len(fields.digest)):
		return true, nil
	}

	return false, nil
}

func parsePHC(encoded string) (*phcFields, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	versionStr, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, errors.New("missing argon2 version")
	}
	version, err := strconv.Atoi(versionStr)
	if err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	fields := &phcFields{}
	if err := parseCosts(parts[3], fields); err != nil {
		return nil, err
	}

	fields.salt, err = base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(fields.salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt length")
	}

	fields.digest, err = base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(fields.digest) == 0 {
		return nil, errors.New("invalid hash length")
	}

	return fields, nil
}

func parseCosts(part string, fields *phcFields) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return errors.New("invalid parameter format")
	}

	var haveMemory, haveIterations, haveParallelism bool

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return errors.New("invalid parameter entry")
		}

		switch key {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < uint64(minMemoryKB) {
				return errors.New("invalid memory parameter")
			}
			fields.memoryKB = uint32(v)
			haveMemory = true
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < uint64(minTimeCost) {
				return errors.New("invalid time parameter")
			}
			fields.iterations = uint32(v)
			haveIterations = true
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return errors.New("invalid parallelism parameter")
			}
			fields.parallelism = uint8(v)
			haveParallelism = true
		default:
			return errors.New("unsupported parameter")
		}
	}

	if !haveMemory || !haveIterations || !haveParallelism {
		return errors.New("missing parameters")
	}

	return nil
}

func validateParams(params Params) error {
	if params.MemoryKB < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if params.Iterations < minTimeCost {
		return errors.New("password iterations must be >= 1")
	}
	if params.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if params.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if params.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}

	return nil
}
