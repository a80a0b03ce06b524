// Package limiter defines interfaces and implementations for login rate limiting.
package limiter

import (
	"context"
	"crypto/sha256"
	"strings"
	"time"
)

// Key identifies one stream of login attempts: a login name from one address.
type Key struct {
	Login  string
	IPHash []byte
}

// KeyFor builds a Key from a login and a remote address. The address is
// hashed so raw IPs are never stored; the login is case-folded.
func KeyFor(login, remoteAddr string) Key {
	h := sha256.Sum256([]byte(remoteAddr))
	return Key{Login: strings.ToLower(strings.TrimSpace(login)), IPHash: h[:]}
}

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether login is currently allowed and an optional retry-after.
	Allow(ctx context.Context, k Key) (bool, time.Duration, error)
	// Success resets counters after a successful login.
	Success(ctx context.Context, k Key) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, k Key) (bool, time.Duration, error)
}
