package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Relay persists chat messages and fans them out to both members.
type Relay struct {
	reg   *Registry
	store Store
	now   func() time.Time
}

// NewRelay constructs the message relay.
func NewRelay(reg *Registry, store Store) *Relay {
	return &Relay{reg: reg, store: store, now: time.Now}
}

// Send stores a message from authorID in chatID, then pushes it to the
// peer's sessions and echoes it to every session of the author. Nothing
// is pushed when storing fails.
func (r *Relay) Send(ctx context.Context, authorID, chatID uuid.UUID, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty message", errs.ErrInvalidArgument)
	}
	chat, err := r.store.FindChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("find chat %s: %w", chatID, err)
	}
	peer, err := chat.OtherMember(authorID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	m := &model.Message{
		ID:       id,
		ChatID:   chatID,
		AuthorID: authorID,
		Content:  content,
		Date:     r.now().UTC(),
	}
	if err := r.store.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	ev := Event{
		Type:      EventMessage,
		ChatID:    chatID,
		UserID:    authorID,
		MessageID: m.ID,
		Content:   m.Content,
		Date:      m.Date,
	}
	r.reg.Push(peer, ev)
	r.reg.Push(authorID, ev)
	return m, nil
}
