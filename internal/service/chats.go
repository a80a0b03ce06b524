package service

import (
	"context"
	"fmt"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/and161185/pairchat/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Chat request responses.
const (
	ActionConfirm = "confirm"
	ActionDecline = "decline"
)

// Paging defaults for user search.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Notifier pushes chat lifecycle hints to connected users.
type Notifier interface {
	RequestCreated(ctx context.Context, senderID, receiverID uuid.UUID)
	ChatCreated(ctx context.Context, chatID, initiatorID uuid.UUID) error
	ChatDeleted(ctx context.Context, chatID, remainingID uuid.UUID)
}

// ChatService defines user search, the chat request handshake and chat management.
type ChatService interface {
	// SearchUsers returns one page of other users whose name contains search.
	SearchUsers(ctx context.Context, caller uuid.UUID, search string, page, limit int) (model.UserPage, error)
	// SendRequest invites receiverID to a chat with senderID.
	SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*model.ChatRequest, error)
	// RespondRequest confirms or declines a request addressed to receiverID.
	// On confirm it returns the id of the new chat.
	RespondRequest(ctx context.Context, receiverID, requestID uuid.UUID, action string) (uuid.UUID, error)
	// ListRequests lists requests addressed to receiverID.
	ListRequests(ctx context.Context, receiverID uuid.UUID) ([]model.ChatRequest, error)
	// ListChats returns every chat of userID with its messages.
	ListChats(ctx context.Context, userID uuid.UUID) ([]model.ChatView, error)
	// DeleteChat removes a chat userID is a member of.
	DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error
}

type ChatServiceImpl struct {
	log      *zap.Logger
	users    repository.UserRepository
	chats    repository.ChatRepository
	requests repository.RequestRepository
	notify   Notifier
}

// NewChatService constructs ChatService. notify may be nil.
func NewChatService(log *zap.Logger, users repository.UserRepository, chats repository.ChatRepository, requests repository.RequestRepository, notify Notifier) *ChatServiceImpl {
	return &ChatServiceImpl{log: log, users: users, chats: chats, requests: requests, notify: notify}
}

// SearchUsers clamps paging and computes the page count.
func (s *ChatServiceImpl) SearchUsers(ctx context.Context, caller uuid.UUID, search string, page, limit int) (model.UserPage, error) {
	page = max(page, 1)
	if limit < 1 {
		limit = DefaultPageSize
	}
	limit = lo.Clamp(limit, 1, MaxPageSize)
	users, total, err := s.users.Search(ctx, caller, search, limit, (page-1)*limit)
	if err != nil {
		return model.UserPage{}, err
	}
	return model.UserPage{Users: users, TotalPages: (total + limit - 1) / limit}, nil
}

// SendRequest rejects self requests, unknown receivers and pairs that
// already chat. A pending request in either direction makes the
// repository return errs.ErrRequestExists.
func (s *ChatServiceImpl) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*model.ChatRequest, error) {
	if receiverID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userId", errs.ErrInvalidArgument)
	}
	if senderID == receiverID {
		return nil, errs.ErrSelfRequest
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}
	exists, err := s.chats.ExistsBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.ErrChatExists
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	r := &model.ChatRequest{ID: id, SenderID: senderID, ReceiverID: receiverID}
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, err
	}
	if s.notify != nil {
		s.notify.RequestCreated(ctx, senderID, receiverID)
	}
	return r, nil
}

// RespondRequest resolves a pending request. Confirming creates the chat
// and consumes the request atomically and tells the sender; declining
// just deletes it.
func (s *ChatServiceImpl) RespondRequest(ctx context.Context, receiverID, requestID uuid.UUID, action string) (uuid.UUID, error) {
	if requestID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: empty requestId", errs.ErrInvalidArgument)
	}
	switch action {
	case ActionDecline:
		return uuid.Nil, s.requests.Delete(ctx, requestID, receiverID)
	case ActionConfirm:
	default:
		return uuid.Nil, fmt.Errorf("%w: action %q", errs.ErrInvalidArgument, action)
	}

	chatID, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	chat, err := s.chats.CreateFromRequest(ctx, requestID, receiverID, chatID)
	if err != nil {
		return uuid.Nil, err
	}
	if s.notify != nil {
		if err := s.notify.ChatCreated(ctx, chat.ID, receiverID); err != nil {
			s.log.Warn("notify chat created", zap.Stringer("chat", chat.ID), zap.Error(err))
		}
	}
	return chat.ID, nil
}

func (s *ChatServiceImpl) ListRequests(ctx context.Context, receiverID uuid.UUID) ([]model.ChatRequest, error) {
	return s.requests.ListByReceiver(ctx, receiverID)
}

func (s *ChatServiceImpl) ListChats(ctx context.Context, userID uuid.UUID) ([]model.ChatView, error) {
	return s.chats.ListByUser(ctx, userID)
}

// DeleteChat removes the chat and its messages and tells the other member.
func (s *ChatServiceImpl) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	if chatID == uuid.Nil {
		return fmt.Errorf("%w: empty chatId", errs.ErrInvalidArgument)
	}
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	peer, err := chat.OtherMember(userID)
	if err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chatID); err != nil {
		return err
	}
	if s.notify != nil {
		s.notify.ChatDeleted(ctx, chatID, peer)
	}
	return nil
}
