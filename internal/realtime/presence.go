package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Presence answers "which of my chat peers are online" with an explicit
// ask (userOnlineVerify) and tell (userOnline) exchange, and announces
// departures.
type Presence struct {
	log   *zap.Logger
	reg   *Registry
	store Store
}

// NewPresence constructs the presence coordinator.
func NewPresence(log *zap.Logger, reg *Registry, store Store) *Presence {
	return &Presence{log: log, reg: reg, store: store}
}

// QueryPeers asks every reachable peer of userID whether it is online.
// Each peer answers with AnnounceOnline. Chats deleted in the meantime
// are skipped.
func (p *Presence) QueryPeers(ctx context.Context, userID uuid.UUID) error {
	u, err := p.store.FindUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	for _, chatID := range u.Chats {
		chat, err := p.store.FindChat(ctx, chatID)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("find chat %s: %w", chatID, err)
		}
		peer, err := chat.OtherMember(userID)
		if err != nil {
			return err
		}
		if !p.reg.IsReachable(peer) {
			continue
		}
		p.reg.Push(peer, Event{Type: EventUserOnlineVerify, ChatID: chatID, UserID: userID})
	}
	return nil
}

// AnnounceOnline tells requester that from is online in chatID. Both must
// be the two members of the chat.
func (p *Presence) AnnounceOnline(ctx context.Context, from, chatID, requester uuid.UUID) error {
	chat, err := p.store.FindChat(ctx, chatID)
	if err != nil {
		return fmt.Errorf("find chat %s: %w", chatID, err)
	}
	peer, err := chat.OtherMember(from)
	if err != nil {
		return err
	}
	if peer != requester {
		return fmt.Errorf("%w: %s is not the peer in chat %s", errs.ErrNotChatMember, requester, chatID)
	}
	p.reg.Push(requester, Event{Type: EventUserOnline, ChatID: chatID, UserID: from})
	return nil
}

// Disconnect tells every reachable peer of userID that userID left.
// It is best effort: missing users or chats and broken chat rows are
// logged and skipped. It stops as soon as userID is reachable again.
func (p *Presence) Disconnect(ctx context.Context, userID uuid.UUID) {
	u, err := p.store.FindUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			p.log.Warn("disconnect: find user", zap.Stringer("user", userID), zap.Error(err))
		}
		return
	}
	for _, chatID := range u.Chats {
		chat, err := p.store.FindChat(ctx, chatID)
		if err != nil {
			if !errors.Is(err, errs.ErrNotFound) {
				p.log.Warn("disconnect: find chat", zap.Stringer("chat", chatID), zap.Error(err))
			}
			continue
		}
		peer, err := chat.OtherMember(userID)
		if err != nil {
			p.log.Warn("disconnect: chat without a valid peer",
				zap.Stringer("chat", chatID), zap.Stringer("user", userID), zap.Error(err))
			continue
		}
		// a session opened during the lookups makes userID online again
		if p.reg.IsReachable(userID) {
			return
		}
		p.reg.Push(peer, Event{Type: EventUserDisconnect, ChatID: chatID, UserID: userID})
	}
}
