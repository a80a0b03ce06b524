package realtime

import (
	"context"
	"fmt"

	"github.com/and161185/pairchat/internal/model"
	"github.com/and161185/pairchat/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// Store is the durable state the hub reads and writes through.
type Store interface {
	// FindUser returns the user with the ids of every chat they belong to.
	FindUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	// FindChat returns the chat with its members.
	FindChat(ctx context.Context, id uuid.UUID) (*model.Chat, error)
	// CreateMessage stores m and appends it to its chat; errs.ErrNotFound
	// when the chat no longer exists.
	CreateMessage(ctx context.Context, m *model.Message) error
	// MarkMessagesRead sets readed on every message of authorID in chatID.
	MarkMessagesRead(ctx context.Context, chatID, authorID uuid.UUID) (int64, error)
}

// RepoStore adapts the repositories to Store.
type RepoStore struct {
	Users    repository.UserRepository
	Chats    repository.ChatRepository
	Messages repository.MessageRepository
}

var _ Store = (*RepoStore)(nil)

func (s *RepoStore) FindUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Chats, err = s.Chats.IDsByUser(ctx, id); err != nil {
		return nil, fmt.Errorf("chats of %s: %w", id, err)
	}
	return u, nil
}

func (s *RepoStore) FindChat(ctx context.Context, id uuid.UUID) (*model.Chat, error) {
	return s.Chats.GetByID(ctx, id)
}

func (s *RepoStore) CreateMessage(ctx context.Context, m *model.Message) error {
	return s.Messages.Create(ctx, m)
}

func (s *RepoStore) MarkMessagesRead(ctx context.Context, chatID, authorID uuid.UUID) (int64, error) {
	return s.Messages.MarkRead(ctx, chatID, authorID)
}
