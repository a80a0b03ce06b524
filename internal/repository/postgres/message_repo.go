package postgres

import (
	"context"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// MessageRepo implements MessageRepository using PostgreSQL.
type MessageRepo struct{ db *DB }

// NewMessageRepo constructs a message repository.
func NewMessageRepo(db *DB) *MessageRepo { return &MessageRepo{db: db} }

func scanMessage(row pgx.Row) (model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.ChatID, &m.AuthorID, &m.Content, &m.Date, &m.Readed)
	return m, err
}

// Create inserts the message and touches the chat's updated_at.
// Message order within a chat follows the serial seq column.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		const ins = `
INSERT INTO messages (id, chat_id, author_id, content, date, readed)
VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.Exec(ctx, ins, m.ID, m.ChatID, m.AuthorID, m.Content, m.Date, m.Readed); err != nil {
			if isForeignKeyViolation(err) {
				return errs.ErrNotFound
			}
			return err
		}

		const upd = `UPDATE chats SET updated_at = $2 WHERE id = $1`
		tag, err := tx.Exec(ctx, upd, m.ChatID, m.Date)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

// MarkRead sets readed on every unread message of authorID in chatID.
func (r *MessageRepo) MarkRead(ctx context.Context, chatID, authorID uuid.UUID) (int64, error) {
	const q = `UPDATE messages SET readed = true WHERE chat_id = $1 AND author_id = $2 AND NOT readed`
	tag, err := r.db.Pool.Exec(ctx, q, chatID, authorID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListByChat returns the chat's messages in creation order.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]model.Message, error) {
	const q = `
SELECT id, chat_id, author_id, content, date, readed
FROM messages WHERE chat_id = $1 ORDER BY seq`
	rows, err := r.db.Pool.Query(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
