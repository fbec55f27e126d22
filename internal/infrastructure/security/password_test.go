package security

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *BcryptHasher {
	t.Helper()
	h, err := NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	return h
}

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := newTestHasher(t)

	for _, pw := range []string{"secret", "pässwörd", strings.Repeat("x", 72)} {
		digest, err := h.Hash(context.Background(), pw)
		if err != nil {
			t.Fatalf("hash %q: %v", pw, err)
		}
		if digest == pw {
			t.Fatalf("digest equals plaintext")
		}
		if !h.Verify(context.Background(), pw, digest) {
			t.Fatalf("verify failed for %q", pw)
		}
	}
}

func TestBcryptHasher_Mismatch(t *testing.T) {
	h := newTestHasher(t)

	digest, err := h.Hash(context.Background(), "secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h.Verify(context.Background(), "secreT", digest) {
		t.Fatalf("verify accepted a different password")
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	h := newTestHasher(t)

	a, _ := h.Hash(context.Background(), "secret")
	b, _ := h.Hash(context.Background(), "secret")
	if a == b {
		t.Fatalf("expected distinct salts")
	}
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	h := newTestHasher(t)

	for _, digest := range []string{"", "not-a-hash", "$2a$99$garbage"} {
		if h.Verify(context.Background(), "decoy-password", digest) {
			t.Fatalf("malformed digest %q verified", digest)
		}
	}
}

func TestBcryptHasher_CostEmbedded(t *testing.T) {
	h := newTestHasher(t)

	digest, _ := h.Hash(context.Background(), "secret")
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Fatalf("expected cost %d, got %d", bcrypt.MinCost, cost)
	}
}

func TestNewBcryptHasher_Defaults(t *testing.T) {
	if _, err := NewBcryptHasher(bcrypt.MaxCost + 1); err == nil {
		t.Fatalf("expected out-of-range cost to fail")
	}
	h, err := NewBcryptHasher(0)
	if err != nil {
		t.Fatalf("default cost: %v", err)
	}
	if h.Cost() != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.Cost())
	}
}
