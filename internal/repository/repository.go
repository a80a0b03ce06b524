// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to accounts.
type UserRepository interface {
	// Create inserts a new user; errs.ErrAlreadyExists on a taken name or email.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user, including any pending reset, by lower-cased email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Search returns one page of profiles whose name contains search
	// (case-insensitive), excluding the user exclude, and the total match count.
	Search(ctx context.Context, exclude uuid.UUID, search string, limit, offset int) ([]model.Profile, int, error)
	// UpdatePassword stores a new hash, bumps the password version and clears
	// any pending reset. It returns the new version.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash, salt []byte) (int64, error)
	// SetResetToken stores a hashed reset code valid until expires.
	SetResetToken(ctx context.Context, id uuid.UUID, hash, salt []byte, expires time.Time) error
}

// ChatRepository provides access to chats.
type ChatRepository interface {
	// GetByID loads the chat and its two members. Messages are not loaded.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Chat, error)
	// IDsByUser lists the ids of every chat userID belongs to.
	IDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// ListByUser returns every chat of userID with the peer profile and all messages.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ChatView, error)
	// ExistsBetween reports whether a and b already share a chat.
	ExistsBetween(ctx context.Context, a, b uuid.UUID) (bool, error)
	// CreateFromRequest atomically consumes the request addressed to
	// receiverID and creates a chat with id chatID between its two parties.
	CreateFromRequest(ctx context.Context, requestID, receiverID, chatID uuid.UUID) (*model.Chat, error)
	// Delete removes the chat and all of its messages.
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageRepository provides access to messages.
type MessageRepository interface {
	// Create stores m and advances its chat's update time in one transaction;
	// errs.ErrNotFound if the chat is gone.
	Create(ctx context.Context, m *model.Message) error
	// MarkRead flags every unread message authored by authorID in chatID as read.
	MarkRead(ctx context.Context, chatID, authorID uuid.UUID) (int64, error)
	// ListByChat returns the messages of chatID in creation order.
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]model.Message, error)
}

// RequestRepository provides access to pending chat requests.
type RequestRepository interface {
	// Create inserts r; errs.ErrRequestExists if the pair already has one pending.
	Create(ctx context.Context, r *model.ChatRequest) error
	// GetByID loads a request.
	GetByID(ctx context.Context, id uuid.UUID) (*model.ChatRequest, error)
	// ListByReceiver lists requests addressed to receiverID with sender profiles.
	ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]model.ChatRequest, error)
	// Delete removes the request only if it is addressed to receiverID.
	Delete(ctx context.Context, id, receiverID uuid.UUID) error
}
