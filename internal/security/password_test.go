package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Stronger#Pass123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=47104,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if !VerifyPassword(hash, "Stronger#Pass123") {
		t.Fatal("expected password verification success")
	}
	if VerifyPassword(hash, "wrong-pass") {
		t.Fatal("expected password verification failure")
	}
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	a, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestVerifyPasswordAcceptsOtherCostParams(t *testing.T) {
	hasher := NewPasswordHasher(PasswordParams{Time: 2, MemoryKiB: 8 * 1024, Threads: 2})
	hash, err := hasher.Hash("pw-123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !VerifyPassword(hash, "pw-123456") {
		t.Fatal("expected verification with params read from the hash")
	}
}

func TestVerifyPasswordMalformedHashReturnsFalse(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=47104,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=47104,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=47104,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=47104,t=1,p=1$c2FsdA$!!!",
		"$argon2id$v=19$m=47104,t=0,p=1$c2FsdA$aGFzaA",
	}
	for _, encoded := range cases {
		if VerifyPassword(encoded, "anything") {
			t.Fatalf("expected malformed hash %q to fail verification", encoded)
		}
	}
}
