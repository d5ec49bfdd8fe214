package token

import (
	"bytes"
	"strings"
	"testing"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec([]byte("test-secret-0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return codec
}

func TestNewCodec_RejectsMissingSecret(t *testing.T) {
	if _, err := NewCodec(nil); err == nil {
		t.Fatal("expected error for nil secret")
	}
	if _, err := NewCodec([]byte("short")); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	bodies := [][]byte{
		[]byte(`{"pid":"u1","knd":"student"}`),
		[]byte("x"),
		bytes.Repeat([]byte("a"), 1024),
		{0x00, 0xff, 0x10},
	}

	for _, body := range bodies {
		credential := codec.Sign(body)
		got, ok := codec.Verify(credential)
		if !ok {
			t.Fatalf("Verify rejected freshly signed body %q", body)
		}
		if !bytes.Equal(got, body) {
			t.Fatalf("round trip mismatch: got %q want %q", got, body)
		}
	}
}

func TestCodec_TamperRejection(t *testing.T) {
	codec := newTestCodec(t)
	credential := codec.Sign([]byte(`{"pid":"u1","eml":"user@example.com"}`))

	// Flipping any single character in either segment must invalidate.
	for i := 0; i < len(credential); i++ {
		if credential[i] == '.' {
			continue
		}
		mutated := []byte(credential)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		if _, ok := codec.Verify(string(mutated)); ok {
			t.Fatalf("tampered credential accepted at position %d", i)
		}
	}
}

func TestCodec_RejectsForeignSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec([]byte("another-secret-0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	credential := other.Sign([]byte("body"))
	if _, ok := codec.Verify(credential); ok {
		t.Fatal("credential signed with a different secret was accepted")
	}
}

func TestCodec_RejectsMalformed(t *testing.T) {
	codec := newTestCodec(t)

	cases := []string{
		"",
		"no-delimiter",
		".",
		"onlybody.",
		".onlysig",
		"not*base64.AAAA",
		"AAAA.not*base64",
		strings.Repeat(".", 5),
	}

	for _, credential := range cases {
		if _, ok := codec.Verify(credential); ok {
			t.Fatalf("malformed credential %q accepted", credential)
		}
	}
}

func TestCodec_SecretIsCopied(t *testing.T) {
	secret := []byte("mutable-secret-0123456789abcdef0")
	codec, err := NewCodec(secret)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	credential := codec.Sign([]byte("body"))
	for i := range secret {
		secret[i] = 0
	}

	if _, ok := codec.Verify(credential); !ok {
		t.Fatal("mutating the caller's secret slice affected the codec")
	}
}
