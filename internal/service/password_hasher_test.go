package service

import "testing"

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	var hasher PasswordHasher

	digest, err := hasher.Hash("Secret123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "Secret123!" || digest == "" {
		t.Fatalf("expected salted digest, got %q", digest)
	}

	if !hasher.Verify("Secret123!", digest) {
		t.Fatalf("expected matching secret to verify")
	}
	if hasher.Verify("Secret123", digest) {
		t.Fatalf("expected mismatch to fail")
	}
}

func TestPasswordHasher_SaltedDigestsDiffer(t *testing.T) {
	var hasher PasswordHasher

	first, err := hasher.Hash("same-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.Hash("same-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("expected different digests for the same secret")
	}
}

func TestPasswordHasher_MalformedDigestIsFalse(t *testing.T) {
	var hasher PasswordHasher

	if hasher.Verify("anything", "not-a-bcrypt-digest") {
		t.Fatalf("expected malformed digest to verify false")
	}
	if hasher.Verify("anything", "") {
		t.Fatalf("expected empty digest to verify false")
	}
}
