package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, name, email, pwd_hash, pwd_salt, password_version)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q, u.ID, u.Name, u.Email, u.PwdHash, u.PwdSalt, u.PasswordVersion).
		Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		_, constraint := pgCode(err)
		field := "name"
		if strings.Contains(constraint, "email") {
			field = "email"
		}
		return fmt.Errorf("%w: %s", errs.ErrAlreadyExists, field)
	}
	return err
}

const userCols = `id, name, email, pwd_hash, pwd_salt, password_version, reset_hash, reset_salt, reset_expires, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PwdHash, &u.PwdSalt, &u.PasswordVersion,
		&u.ResetHash, &u.ResetSalt, &u.ResetExpires, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if u.ResetExpires.Unix() <= 0 {
		u.ResetExpires = time.Time{}
	}
	return &u, nil
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search lists users other than exclude, optionally filtered by a
// case-insensitive substring of the name, ordered by name.
func (r *UserRepo) Search(ctx context.Context, exclude uuid.UUID, search string, limit, offset int) ([]model.Profile, int, error) {
	where := sq.And{sq.Expr("id <> ?", exclude)}
	if s := strings.TrimSpace(search); s != "" {
		where = append(where, sq.Expr("name ILIKE ?", "%"+likeEscaper.Replace(s)+"%"))
	}

	countSQL, countArgs, err := psql.Select("count(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Profile{}, 0, nil
	}

	pageSQL, pageArgs, err := psql.Select("id", "name", "email").From("users").Where(where).
		OrderBy("name").Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Pool.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Profile, 0, limit)
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// UpdatePassword replaces the password hash and bumps password_version.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash, salt []byte) (int64, error) {
	const q = `
UPDATE users
SET pwd_hash = $2, pwd_salt = $3, password_version = password_version + 1,
    reset_hash = '', reset_salt = '', reset_expires = 'epoch'
WHERE id = $1
RETURNING password_version`
	var pv int64
	if err := r.db.Pool.QueryRow(ctx, q, id, hash, salt).Scan(&pv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return pv, nil
}

// SetResetToken stores a pending reset, replacing any previous one.
func (r *UserRepo) SetResetToken(ctx context.Context, id uuid.UUID, hash, salt []byte, expires time.Time) error {
	const q = `UPDATE users SET reset_hash = $2, reset_salt = $3, reset_expires = $4 WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, q, id, hash, salt, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
