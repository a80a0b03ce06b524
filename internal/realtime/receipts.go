package realtime

import (
	"context"
	"fmt"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/gofrs/uuid/v5"
)

// Receipts marks a peer's messages read and tells the peer.
type Receipts struct {
	reg   *Registry
	store Store
}

// NewReceipts constructs the read-receipt propagator.
func NewReceipts(reg *Registry, store Store) *Receipts {
	return &Receipts{reg: reg, store: store}
}

// MarkRead flags every message authorID wrote in chatID as read on behalf
// of readerID and notifies authorID. authorID must be readerID's peer in
// the chat, so a reader never touches its own messages.
func (r *Receipts) MarkRead(ctx context.Context, readerID, chatID, authorID uuid.UUID) (int64, error) {
	chat, err := r.store.FindChat(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("find chat %s: %w", chatID, err)
	}
	peer, err := chat.OtherMember(readerID)
	if err != nil {
		return 0, err
	}
	if peer != authorID {
		return 0, fmt.Errorf("%w: %s is not the peer in chat %s", errs.ErrNotChatMember, authorID, chatID)
	}
	n, err := r.store.MarkMessagesRead(ctx, chatID, authorID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	r.reg.Push(authorID, Event{Type: EventLastMessagesReaded, ChatID: chatID})
	return n, nil
}
