// Package service contains application services for accounts, chat
// requests and chats.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/pairchat/internal/crypto"
	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/limiter"
	"github.com/and161185/pairchat/internal/model"
	"github.com/and161185/pairchat/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
)

// DefaultResetTTL is how long a password reset code stays valid.
const DefaultResetTTL = 5 * time.Minute

var validate = validator.New()

// RegisterInput is a new account.
type RegisterInput struct {
	Name     string `validate:"required,max=64"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,max=72"`
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type resetInput struct {
	Email    string `validate:"required,email"`
	Code     string `validate:"required,numeric,len=5"`
	Password string `validate:"required,min=6,max=72"`
}

// AuthService defines account operations.
type AuthService interface {
	// Register creates a user and logs them in.
	Register(ctx context.Context, in RegisterInput) (model.Tokens, model.User, error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error)
	// Me re-issues a token for an already authenticated user.
	Me(ctx context.Context, userID uuid.UUID) (model.Tokens, model.User, error)
	// RequestPasswordReset mails a short-lived reset code.
	RequestPasswordReset(ctx context.Context, email string) error
	// ResetPassword sets a new password if code matches, revoking old tokens.
	ResetPassword(ctx context.Context, email, code, password string) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(u model.User) (model.Tokens, error)
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	lim      limiter.Limiter
	mailer   Mailer
	resetTTL time.Duration
	now      func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
// A non-positive resetTTL means DefaultResetTTL.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, lim limiter.Limiter, mailer Mailer, resetTTL time.Duration) *AuthServiceImpl {
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &AuthServiceImpl{
		users:    users,
		tokens:   tokens,
		lim:      lim,
		mailer:   mailer,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func invalid(err error) error {
	return fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
}

// Register validates input, stores the user with a per-user salt and issues a token.
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (model.Tokens, model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return model.Tokens{}, model.User{}, invalid(err)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	hash, salt, err := pkgcrypto.Salted(in.Password)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	u := &model.User{
		ID:      uid,
		Name:    in.Name,
		Email:   in.Email,
		PwdHash: hash,
		PwdSalt: salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.Tokens{}, model.User{}, err
	}
	tok, err := s.tokens.Issue(*u)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// LoginWithIP authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	email = normEmail(email)
	if err := validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return model.Tokens{}, model.User{}, invalid(err)
	}
	key := limiter.KeyFor(email, ip)

	allowed, _, err := s.lim.Allow(ctx, key)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.User{}, err
	}
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.PwdSalt, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, key); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	// best-effort
	_ = s.lim.Success(ctx, key)

	tok, err := s.tokens.Issue(*u)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// Me loads the caller and issues a fresh token.
func (s *AuthServiceImpl) Me(ctx context.Context, userID uuid.UUID) (model.Tokens, model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Tokens{}, model.User{}, errs.ErrUnauthorized
		}
		return model.Tokens{}, model.User{}, err
	}
	tok, err := s.tokens.Issue(*u)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// RequestPasswordReset stores a hashed reset code and mails the plain one.
// An unknown email succeeds without sending anything.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	email = normEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return invalid(err)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code, err := pkgcrypto.ResetCode()
	if err != nil {
		return err
	}
	hash, salt, err := pkgcrypto.Salted(code)
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, u.ID, hash, salt, s.now().Add(s.resetTTL)); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}
	if err := s.mailer.SendResetCode(ctx, u.Email, code); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}
	return nil
}

// ResetPassword checks code against the pending reset of email and
// replaces the password. The password version is bumped, so every token
// issued before is rejected from then on.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email, code, password string) error {
	in := resetInput{Email: normEmail(email), Code: strings.TrimSpace(code), Password: password}
	if err := validate.Struct(in); err != nil {
		return invalid(err)
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: no pending reset", errs.ErrUnauthorized)
		}
		return err
	}
	if u.ResetExpires.IsZero() || len(u.ResetHash) == 0 {
		return fmt.Errorf("%w: no pending reset", errs.ErrUnauthorized)
	}
	if !pkgcrypto.VerifyPassword([]byte(in.Code), u.ResetSalt, u.ResetHash) {
		return fmt.Errorf("%w: wrong reset code", errs.ErrUnauthorized)
	}
	if s.now().After(u.ResetExpires) {
		return fmt.Errorf("%w: reset code expired", errs.ErrUnauthorized)
	}

	hash, salt, err := pkgcrypto.Salted(in.Password)
	if err != nil {
		return err
	}
	if _, err := s.users.UpdatePassword(ctx, u.ID, hash, salt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
