package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "name", "email", "pwd_hash", "pwd_salt", "password_version", "reset_hash", "reset_salt", "reset_expires", "created_at"}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{
		ID:              uuid.Must(uuid.NewV4()),
		Name:            "ann",
		Email:           "ann@example.com",
		PwdHash:         []byte("h"),
		PwdSalt:         []byte("s"),
		PasswordVersion: 1,
	}
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	const insert = `INSERT INTO users \(id, name, email, pwd_hash, pwd_salt, password_version\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\) RETURNING created_at`

	mock.ExpectQuery(insert).
		WithArgs(u.ID, u.Name, u.Email, u.PwdHash, u.PwdSalt, u.PasswordVersion).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	require.NoError(t, r.Create(ctx, u))
	require.Equal(t, created, u.CreatedAt)

	mock.ExpectQuery(insert).
		WithArgs(u.ID, u.Name, u.Email, u.PwdHash, u.PwdSalt, u.PasswordVersion).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
	err := r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.ErrorContains(t, err, "email")

	mock.ExpectQuery(insert).
		WithArgs(u.ID, u.Name, u.Email, u.PwdHash, u.PwdSalt, u.PasswordVersion).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_name_key"})
	err = r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.ErrorContains(t, err, "name")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT id, name, email, .* FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow(id, "ann", "ann@example.com", []byte("h"), []byte("s"), int64(3), []byte{}, []byte{}, time.Unix(0, 0), time.Now()))
	u, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, int64(3), u.PasswordVersion)
	require.True(t, u.ResetExpires.IsZero(), "epoch means no pending reset")

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(errors.New("conn reset"))
	_, err = r.GetByID(ctx, id)
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_GetByEmail_WithPendingReset(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	id := uuid.Must(uuid.NewV4())
	exp := time.Now().Add(5 * time.Minute).UTC()

	mock.ExpectQuery(`FROM users WHERE email=\$1`).
		WithArgs("ann@example.com").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow(id, "ann", "ann@example.com", []byte("h"), []byte("s"), int64(1), []byte("rh"), []byte("rs"), exp, time.Now()))
	u, err := r.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, []byte("rh"), u.ResetHash)
	require.Equal(t, exp, u.ResetExpires)
}

func TestUserRepo_Search(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	me := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT count\(\*\) FROM users WHERE \(id <> \$1 AND name ILIKE \$2\)`).
		WithArgs(me, `%an\_n%`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`SELECT id, name, email FROM users WHERE \(id <> \$1 AND name ILIKE \$2\) ORDER BY name LIMIT 10 OFFSET 10`).
		WithArgs(me, `%an\_n%`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email"}).AddRow(other, "an_na", "anna@x.io"))

	page, total, err := r.Search(ctx, me, " an_n ", 10, 10)
	require.NoError(t, err)
	require.Equal(t, 11, total)
	require.Equal(t, []model.Profile{{ID: other, Name: "an_na", Email: "anna@x.io"}}, page)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Search_NoFilterNoRows(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	me := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT count\(\*\) FROM users WHERE \(id <> \$1\)`).
		WithArgs(me).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	page, total, err := r.Search(context.Background(), me, "", 10, 0)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, page)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_UpdatePassword(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE users SET pwd_hash = \$2, pwd_salt = \$3, password_version = password_version \+ 1, .* RETURNING password_version`).
		WithArgs(id, []byte("h2"), []byte("s2")).
		WillReturnRows(pgxmock.NewRows([]string{"password_version"}).AddRow(int64(2)))
	pv, err := r.UpdatePassword(context.Background(), id, []byte("h2"), []byte("s2"))
	require.NoError(t, err)
	require.Equal(t, int64(2), pv)

	mock.ExpectQuery(`UPDATE users SET pwd_hash`).
		WithArgs(id, []byte("h2"), []byte("s2")).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.UpdatePassword(context.Background(), id, []byte("h2"), []byte("s2"))
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_SetResetToken(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	id := uuid.Must(uuid.NewV4())
	exp := time.Now().Add(5 * time.Minute)

	mock.ExpectExec(`UPDATE users SET reset_hash = \$2, reset_salt = \$3, reset_expires = \$4 WHERE id = \$1`).
		WithArgs(id, []byte("h"), []byte("s"), exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetResetToken(context.Background(), id, []byte("h"), []byte("s"), exp))

	mock.ExpectExec(`UPDATE users SET reset_hash`).
		WithArgs(id, []byte("h"), []byte("s"), exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SetResetToken(context.Background(), id, []byte("h"), []byte("s"), exp), errs.ErrNotFound)
}
