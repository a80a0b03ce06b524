package service

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgcrypto "github.com/and161185/pairchat/internal/crypto"
	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/limiter"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
)

func newUser(t *testing.T, name, email, password string) *model.User {
	t.Helper()
	hash, salt, err := pkgcrypto.Salted(password)
	if err != nil {
		t.Fatalf("Salted: %v", err)
	}
	return &model.User{ID: uuid.Must(uuid.NewV4()), Name: name, Email: email, PwdHash: hash, PwdSalt: salt}
}

func TestAuth_Register_Basics(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	s := NewAuthService(users, newTokens(users), &fakeLimiter{}, &fakeMailer{}, 0)
	ctx := context.Background()

	for _, in := range []RegisterInput{
		{},
		{Name: "alice", Email: "not-an-email", Password: "secret1"},
		{Name: "alice", Email: "a@x.io", Password: "short"},
		{Name: "  ", Email: "a@x.io", Password: "secret1"},
	} {
		if _, _, err := s.Register(ctx, in); !errors.Is(err, errs.ErrInvalidArgument) {
			t.Fatalf("Register(%+v): want ErrInvalidArgument, got %v", in, err)
		}
	}

	tok, u, err := s.Register(ctx, RegisterInput{Name: " alice ", Email: "Alice@X.io", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == uuid.Nil || u.Name != "alice" || u.Email != "alice@x.io" {
		t.Fatalf("bad user: %+v", u)
	}
	if tok.AccessToken == "" {
		t.Fatalf("empty token")
	}
	if !pkgcrypto.VerifyPassword([]byte("secret1"), u.PwdSalt, u.PwdHash) {
		t.Fatalf("stored hash does not verify")
	}

	if _, _, err := s.Register(ctx, RegisterInput{Name: "alice", Email: "b@x.io", Password: "secret1"}); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate name, got %v", err)
	}

	users.createErr = errors.New("boom")
	if _, _, err := s.Register(ctx, RegisterInput{Name: "bob", Email: "bob@x.io", Password: "secret1"}); err == nil {
		t.Fatalf("want propagated repo error")
	}
}

func TestAuth_LoginWithIP_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()

	u := newUser(t, "alice", "alice@x.io", "correct")
	users := newFakeUsers(u)
	lim := &fakeLimiter{allowOK: true}
	s := NewAuthService(users, newTokens(users), lim, &fakeMailer{}, 0)
	ctx := context.Background()

	if _, _, err := s.LoginWithIP(ctx, "", "x", ""); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}

	lim.allowErr = errors.New("lim-err")
	if _, _, err := s.LoginWithIP(ctx, "alice@x.io", "correct", "1.2.3.4"); err == nil {
		t.Fatalf("want limiter error propagate")
	}
	lim.allowErr = nil

	lim.allowOK = false
	if _, _, err := s.LoginWithIP(ctx, "alice@x.io", "correct", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	if lim.lastKey.Login != "alice@x.io" || len(lim.lastKey.IPHash) == 0 {
		t.Fatalf("bad limiter key: %+v", lim.lastKey)
	}
	lim.allowOK = true

	if _, _, err := s.LoginWithIP(ctx, "nope@x.io", "x", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on missing user, got %v", err)
	}

	users.getErr = errors.New("db down")
	if _, _, err := s.LoginWithIP(ctx, "alice@x.io", "correct", ""); errors.Is(err, errs.ErrUnauthorized) || err == nil {
		t.Fatalf("want storage error, got %v", err)
	}
	users.getErr = nil

	lim.failBlocked = true
	if _, _, err := s.LoginWithIP(ctx, "alice@x.io", "wrong", ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited on blocked after failure, got %v", err)
	}

	lim.failBlocked = false
	if _, _, err := s.LoginWithIP(ctx, "alice@x.io", "wrong", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on wrong password, got %v", err)
	}

	tok, gotUser, err := s.LoginWithIP(ctx, " ALICE@x.io", "correct", "127.0.0.1:123")
	if err != nil {
		t.Fatalf("LoginWithIP success: %v", err)
	}
	if tok.AccessToken == "" || tok.ExpiresAt.Before(time.Now()) {
		t.Fatalf("bad token: %+v", tok)
	}
	if gotUser.ID != u.ID {
		t.Fatalf("bad user returned: %+v", gotUser)
	}
	if lim.successCalls == 0 {
		t.Fatalf("expected Success() to be called")
	}
	if lim.failureCalls != 3 {
		t.Fatalf("failure calls = %d, want 3", lim.failureCalls)
	}
}

func TestAuth_LoginKeyIgnoresCase(t *testing.T) {
	t.Parallel()
	if a, b := limiter.KeyFor("A@x.io", "1.1.1.1"), limiter.KeyFor("a@x.io", "1.1.1.1"); a.Login != b.Login {
		t.Fatalf("keys differ: %q vs %q", a.Login, b.Login)
	}
}

func TestAuth_Me(t *testing.T) {
	t.Parallel()
	u := newUser(t, "alice", "alice@x.io", "secret1")
	users := newFakeUsers(u)
	tokens := newTokens(users)
	s := NewAuthService(users, tokens, &fakeLimiter{}, &fakeMailer{}, 0)

	tok, got, err := s.Me(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("bad user: %+v", got)
	}
	id, err := tokens.Verify(context.Background(), tok.AccessToken)
	if err != nil || id.UserID != u.ID {
		t.Fatalf("fresh token does not verify: %v", err)
	}

	if _, _, err := s.Me(context.Background(), uuid.Must(uuid.NewV4())); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for unknown user, got %v", err)
	}
}

func TestAuth_PasswordReset_Flow(t *testing.T) {
	t.Parallel()
	u := newUser(t, "alice", "alice@x.io", "oldpass")
	users := newFakeUsers(u)
	tokens := newTokens(users)
	mailer := &fakeMailer{}
	s := NewAuthService(users, tokens, &fakeLimiter{allowOK: true}, mailer, time.Minute)
	ctx := context.Background()

	old, err := tokens.Issue(*u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := s.RequestPasswordReset(ctx, "ALICE@x.io"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if mailer.to != "alice@x.io" || len(mailer.code) != pkgcrypto.ResetCodeDigits {
		t.Fatalf("bad mail: %+v", mailer)
	}
	if stored := users.byEmail["alice@x.io"]; string(stored.ResetHash) == mailer.code || stored.ResetExpires.IsZero() {
		t.Fatalf("reset code must be stored hashed with an expiry")
	}

	wrong := "10000"
	if mailer.code == wrong {
		wrong = "10001"
	}
	if err := s.ResetPassword(ctx, "alice@x.io", wrong, "newpass"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on wrong code, got %v", err)
	}
	if err := s.ResetPassword(ctx, "alice@x.io", mailer.code, "short"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument on short password, got %v", err)
	}

	if err := s.ResetPassword(ctx, "alice@x.io", mailer.code, "newpass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := tokens.Verify(ctx, old.AccessToken); !errors.Is(err, errs.ErrVersionConflict) {
		t.Fatalf("old token must be revoked, got %v", err)
	}
	if _, _, err := s.LoginWithIP(ctx, "alice@x.io", "newpass", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if err := s.ResetPassword(ctx, "alice@x.io", mailer.code, "another"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("code must be single use, got %v", err)
	}
}

func TestAuth_PasswordReset_Expired(t *testing.T) {
	t.Parallel()
	u := newUser(t, "bob", "bob@x.io", "oldpass")
	users := newFakeUsers(u)
	mailer := &fakeMailer{}
	s := NewAuthService(users, newTokens(users), &fakeLimiter{}, mailer, time.Minute)
	start := time.Now()
	s.now = func() time.Time { return start }

	if err := s.RequestPasswordReset(context.Background(), "bob@x.io"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	if err := s.ResetPassword(context.Background(), "bob@x.io", mailer.code, "newpass"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on expired code, got %v", err)
	}
}

func TestAuth_PasswordReset_Edges(t *testing.T) {
	t.Parallel()
	u := newUser(t, "carol", "carol@x.io", "oldpass")
	users := newFakeUsers(u)
	mailer := &fakeMailer{}
	s := NewAuthService(users, newTokens(users), &fakeLimiter{}, mailer, 0)
	ctx := context.Background()

	if err := s.RequestPasswordReset(ctx, "nobody@x.io"); err != nil {
		t.Fatalf("unknown email must not be revealed, got %v", err)
	}
	if mailer.to != "" {
		t.Fatalf("nothing should be sent")
	}
	if err := s.RequestPasswordReset(ctx, "bad"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
	if err := s.ResetPassword(ctx, "carol@x.io", "12345", "newpass"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized without pending reset, got %v", err)
	}
	if err := s.ResetPassword(ctx, "nobody@x.io", "12345", "newpass"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for unknown email, got %v", err)
	}
	if err := s.ResetPassword(ctx, "carol@x.io", "12a45", "newpass"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument on malformed code, got %v", err)
	}

	mailer.err = errors.New("smtp down")
	if err := s.RequestPasswordReset(ctx, "carol@x.io"); err == nil {
		t.Fatalf("want mailer error")
	}
}
