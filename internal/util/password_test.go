package util

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	digest, err := h.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if digest == "s3cret-pass" || !strings.HasPrefix(digest, "$2") {
		t.Fatalf("expected bcrypt digest, got %q", digest)
	}
	if !h.Verify("s3cret-pass", digest) {
		t.Fatalf("expected password verification to succeed")
	}
	if h.Verify("wrong-pass", digest) {
		t.Fatalf("expected password verification to fail for wrong password")
	}
}

func TestHashIsSaltedPerCall(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatalf("expected different digests for repeated hashing")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	if h.Verify("secret", "not-a-digest") {
		t.Fatalf("expected malformed digest to fail verification")
	}
	if h.Verify("", "") {
		t.Fatalf("expected empty input to fail verification")
	}
}

func TestHashPasswordEmptyInput(t *testing.T) {
	if _, err := NewBcryptHasher(0).Hash(""); err == nil {
		t.Fatalf("expected error when password empty")
	}
}

func TestNewBcryptHasherDefaultsCost(t *testing.T) {
	h := NewBcryptHasher(99)
	if h.cost != DefaultBcryptCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
	digest, _ := NewBcryptHasher(DefaultBcryptCost).Hash("pw")
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil || cost != DefaultBcryptCost {
		t.Fatalf("expected cost %d, got %d (%v)", DefaultBcryptCost, cost, err)
	}
}
