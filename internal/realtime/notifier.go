package realtime

import (
	"context"
	"fmt"

	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Notifier pushes chat lifecycle hints. Clients refetch on receipt, so
// these carry identifiers and, for a new chat, the initiator's profile.
type Notifier struct {
	reg   *Registry
	store Store
}

// NewNotifier constructs the chat lifecycle notifier.
func NewNotifier(reg *Registry, store Store) *Notifier {
	return &Notifier{reg: reg, store: store}
}

// RequestCreated tells receiverID that senderID sent a chat request.
func (n *Notifier) RequestCreated(_ context.Context, senderID, receiverID uuid.UUID) {
	n.reg.Push(receiverID, Event{Type: EventNewChatRequest, UserID: senderID})
}

// ChatCreated tells the peer of initiatorID in chatID about the new chat,
// with initiatorID's profile as the other party.
func (n *Notifier) ChatCreated(ctx context.Context, chatID, initiatorID uuid.UUID) error {
	chat, err := n.store.FindChat(ctx, chatID)
	if err != nil {
		return fmt.Errorf("find chat %s: %w", chatID, err)
	}
	peer, err := chat.OtherMember(initiatorID)
	if err != nil {
		return err
	}
	if !n.reg.IsReachable(peer) {
		return nil
	}
	u, err := n.store.FindUser(ctx, initiatorID)
	if err != nil {
		return fmt.Errorf("find user %s: %w", initiatorID, err)
	}
	n.reg.Push(peer, Event{
		Type:   EventNewChat,
		ChatID: chatID,
		Chat:   &model.ChatSummary{ID: chatID, User: u.Profile()},
	})
	return nil
}

// ChatDeleted tells remainingID that chatID is gone.
func (n *Notifier) ChatDeleted(_ context.Context, chatID, remainingID uuid.UUID) {
	n.reg.Push(remainingID, Event{Type: EventRemoveChat, ChatID: chatID})
}
