package security_test

import (
	"testing"

	"github.com/socialnomad/nomadblog/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("s3cret-pw")

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if hash == "s3cret-pw" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if err := security.CheckPassword(hash, "s3cret-pw"); err != nil {
		t.Fatalf("check failed for the right password: %v", err)
	}

	if err := security.CheckPassword(hash, "wrong-pw"); err == nil {
		t.Fatalf("check passed for the wrong password")
	}
}

func TestHashIsSaltedPerCall(t *testing.T) {
	h1, err := security.HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	h2, err := security.HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("two hashes of the same input must differ (fresh salt per call)")
	}

	// both still verify
	if err := security.CheckPassword(h1, "same-input"); err != nil {
		t.Fatalf("first hash does not verify: %v", err)
	}
	if err := security.CheckPassword(h2, "same-input"); err != nil {
		t.Fatalf("second hash does not verify: %v", err)
	}
}
