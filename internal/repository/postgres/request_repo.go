package postgres

import (
	"context"
	"errors"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// RequestRepo implements RequestRepository using PostgreSQL.
type RequestRepo struct{ db *DB }

// NewRequestRepo constructs a chat request repository.
func NewRequestRepo(db *DB) *RequestRepo { return &RequestRepo{db: db} }

// Create inserts a pending request. A unique index over the unordered
// pair rejects a second request in either direction.
func (r *RequestRepo) Create(ctx context.Context, req *model.ChatRequest) error {
	const q = `
INSERT INTO chat_requests (id, sender_id, receiver_id)
VALUES ($1, $2, $3)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q, req.ID, req.SenderID, req.ReceiverID).Scan(&req.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return errs.ErrRequestExists
	case isForeignKeyViolation(err):
		return errs.ErrNotFound
	}
	return err
}

// GetByID loads a request.
func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.ChatRequest, error) {
	const q = `SELECT id, sender_id, receiver_id, created_at FROM chat_requests WHERE id=$1`
	var req model.ChatRequest
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListByReceiver returns requests addressed to receiverID, newest first.
func (r *RequestRepo) ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]model.ChatRequest, error) {
	const q = `
SELECT r.id, r.sender_id, r.receiver_id, r.created_at, u.name, u.email
FROM chat_requests r
JOIN users u ON u.id = r.sender_id
WHERE r.receiver_id = $1
ORDER BY r.created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ChatRequest{}
	for rows.Next() {
		var (
			req    model.ChatRequest
			sender model.Profile
		)
		if err := rows.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.CreatedAt, &sender.Name, &sender.Email); err != nil {
			return nil, err
		}
		sender.ID = req.SenderID
		req.Sender = &sender
		out = append(out, req)
	}
	return out, rows.Err()
}

// Delete removes a request addressed to receiverID.
func (r *RequestRepo) Delete(ctx context.Context, id, receiverID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM chat_requests WHERE id=$1 AND receiver_id=$2`, id, receiverID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
