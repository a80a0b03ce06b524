package crypto

import (
	"bytes"
	"strconv"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal", n)
	}
}

func TestSalted_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, salt, err := Salted("secret1")
	if err != nil {
		t.Fatalf("Salted: %v", err)
	}
	if len(salt) != saltLen || len(hash) != int(argonKeyLen) {
		t.Fatalf("unexpected sizes: salt=%d hash=%d", len(salt), len(hash))
	}
	if !VerifyPassword([]byte("secret1"), salt, hash) {
		t.Fatalf("VerifyPassword: expected true for correct secret")
	}
	if VerifyPassword([]byte("secret2"), salt, hash) {
		t.Fatalf("VerifyPassword: expected false for wrong secret")
	}

	hash2, salt2, err := Salted("secret1")
	if err != nil {
		t.Fatalf("Salted(2): %v", err)
	}
	if bytes.Equal(salt, salt2) || bytes.Equal(hash, hash2) {
		t.Fatalf("same secret must hash differently under fresh salts")
	}
}

func TestVerifyPassword_EmptyExpected(t *testing.T) {
	t.Parallel()

	if VerifyPassword([]byte(""), nil, nil) {
		t.Fatalf("empty stored hash must never verify")
	}
}

func TestResetCode(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		code, err := ResetCode()
		if err != nil {
			t.Fatalf("ResetCode: %v", err)
		}
		if len(code) != ResetCodeDigits {
			t.Fatalf("code %q has %d digits", code, len(code))
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 10000 || n > 99999 {
			t.Fatalf("code %q out of range", code)
		}
	}
}
