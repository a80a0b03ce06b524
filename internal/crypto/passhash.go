// Package crypto implements server-side hashing of passwords and reset codes.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32

	saltLen = 16
)

// ResetCodeDigits is the length of a password reset code.
const ResetCodeDigits = 5

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns Argon2id hash of secret using the provided salt.
func HashPassword(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// VerifyPassword verifies secret against expected Argon2id hash and salt.
func VerifyPassword(secret, salt, expected []byte) bool {
	if len(expected) == 0 {
		return false
	}
	got := HashPassword(secret, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// Salted hashes secret under a fresh random salt.
func Salted(secret string) (hash, salt []byte, err error) {
	salt, err = RandBytes(saltLen)
	if err != nil {
		return nil, nil, err
	}
	return HashPassword([]byte(secret), salt), salt, nil
}

// ResetCode returns a random decimal code of ResetCodeDigits digits
// without a leading zero.
func ResetCode() (string, error) {
	base := int64(1)
	for i := 1; i < ResetCodeDigits; i++ {
		base *= 10
	}
	n, err := rand.Int(rand.Reader, big.NewInt(9*base))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", base+n.Int64()), nil
}
