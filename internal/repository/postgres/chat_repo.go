package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ChatRepo implements ChatRepository using PostgreSQL.
//
// A chat row stores its two members as user_a and user_b; a unique index
// over the unordered pair keeps at most one chat per pair.
type ChatRepo struct{ db *DB }

// NewChatRepo constructs a chat repository.
func NewChatRepo(db *DB) *ChatRepo { return &ChatRepo{db: db} }

// GetByID loads the chat header and members.
func (r *ChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Chat, error) {
	const q = `SELECT id, user_a, user_b, created_at, updated_at FROM chats WHERE id=$1`
	var (
		c    model.Chat
		a, b uuid.UUID
	)
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&c.ID, &a, &b, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	c.Users = []uuid.UUID{a, b}
	return &c, nil
}

// IDsByUser lists chat ids of userID, oldest first.
func (r *ChatRepo) IDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT id FROM chats WHERE user_a=$1 OR user_b=$1 ORDER BY created_at`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByUser returns userID's chats, most recently active first, each with
// the peer's profile and its messages in order.
func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ChatView, error) {
	const chatsQ = `
SELECT c.id, u.id, u.name, u.email
FROM chats c
JOIN users u ON u.id = CASE WHEN c.user_a = $1 THEN c.user_b ELSE c.user_a END
WHERE c.user_a = $1 OR c.user_b = $1
ORDER BY c.updated_at DESC`
	rows, err := r.db.Pool.Query(ctx, chatsQ, userID)
	if err != nil {
		return nil, err
	}
	var (
		views []model.ChatView
		index = map[uuid.UUID]int{}
	)
	for rows.Next() {
		var v model.ChatView
		if err := rows.Scan(&v.ID, &v.User.ID, &v.User.Name, &v.User.Email); err != nil {
			rows.Close()
			return nil, err
		}
		index[v.ID] = len(views)
		views = append(views, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return []model.ChatView{}, nil
	}

	const msgsQ = `
SELECT m.id, m.chat_id, m.author_id, m.content, m.date, m.readed
FROM messages m
JOIN chats c ON c.id = m.chat_id
WHERE c.user_a = $1 OR c.user_b = $1
ORDER BY m.seq`
	mrows, err := r.db.Pool.Query(ctx, msgsQ, userID)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()
	for mrows.Next() {
		m, err := scanMessage(mrows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[m.ChatID]; ok {
			views[i].Messages = append(views[i].Messages, m)
		}
	}
	return views, mrows.Err()
}

// ExistsBetween reports whether a and b share a chat.
func (r *ChatRepo) ExistsBetween(ctx context.Context, a, b uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM chats WHERE (user_a=$1 AND user_b=$2) OR (user_a=$2 AND user_b=$1)
)`
	var ok bool
	err := r.db.Pool.QueryRow(ctx, q, a, b).Scan(&ok)
	return ok, err
}

// CreateFromRequest deletes the request and inserts the chat in one transaction.
func (r *ChatRepo) CreateFromRequest(ctx context.Context, requestID, receiverID, chatID uuid.UUID) (*model.Chat, error) {
	var chat *model.Chat
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		const del = `DELETE FROM chat_requests WHERE id=$1 AND receiver_id=$2 RETURNING sender_id`
		var senderID uuid.UUID
		if err := tx.QueryRow(ctx, del, requestID, receiverID).Scan(&senderID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}

		const ins = `INSERT INTO chats (id, user_a, user_b) VALUES ($1, $2, $3) RETURNING created_at, updated_at`
		c := model.Chat{ID: chatID, Users: []uuid.UUID{senderID, receiverID}}
		if err := tx.QueryRow(ctx, ins, chatID, senderID, receiverID).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return errs.ErrChatExists
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("chat member: %w", errs.ErrNotFound)
			}
			return err
		}
		chat = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Delete removes a chat; its messages go with it (ON DELETE CASCADE).
func (r *ChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM chats WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
