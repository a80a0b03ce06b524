// Package auth issues and verifies access tokens.
//
// A token carries the user id and the password version it was issued
// under; a password change bumps the version and so revokes every token
// issued before it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of an access token.
const DefaultTTL = 24 * time.Hour

const leeway = 30 * time.Second

// Claims is the JWT payload.
type Claims struct {
	UserID          string `json:"userId"`
	PasswordVersion int64  `json:"passwordVersion"`
	jwt.RegisteredClaims
}

// Identity is an authenticated caller.
type Identity struct {
	UserID          uuid.UUID
	PasswordVersion int64
}

// UserLookup loads the current state of a user.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	signKey []byte
	ttl     time.Duration
	users   UserLookup
	now     func() time.Time
}

// NewTokens constructs a token service. A non-positive ttl means DefaultTTL.
func NewTokens(signKey []byte, ttl time.Duration, users UserLookup) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tokens{signKey: signKey, ttl: ttl, users: users, now: time.Now}
}

// Issue creates a signed token for u.
func (t *Tokens) Issue(u model.User) (model.Tokens, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		UserID:          u.ID.String(),
		PasswordVersion: u.PasswordVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// Parse checks signature and expiry and returns the identity in the token.
// It does not consult the user store.
func (t *Tokens) Parse(token string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.signKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	id, err := uuid.FromString(claims.UserID)
	if err != nil || id == uuid.Nil {
		return Identity{}, fmt.Errorf("%w: bad userId claim", errs.ErrUnauthorized)
	}
	return Identity{UserID: id, PasswordVersion: claims.PasswordVersion}, nil
}

// Verify parses token and checks that its password version is still current.
func (t *Tokens) Verify(ctx context.Context, token string) (Identity, error) {
	id, err := t.Parse(token)
	if err != nil {
		return Identity{}, err
	}
	u, err := t.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Identity{}, fmt.Errorf("%w: unknown user", errs.ErrUnauthorized)
		}
		return Identity{}, err
	}
	if u.PasswordVersion != id.PasswordVersion {
		return Identity{}, fmt.Errorf("%w: %w", errs.ErrUnauthorized, errs.ErrVersionConflict)
	}
	return id, nil
}
