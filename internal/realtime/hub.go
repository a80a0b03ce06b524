package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// DefaultTeardownTimeout bounds the store lookups made when a user's last
// session goes away.
const DefaultTeardownTimeout = 5 * time.Second

// Option configures a Hub.
type Option interface {
	apply(*Hub)
}

type optionFunc func(*Hub)

func (f optionFunc) apply(h *Hub) { f(h) }

// WithSessionBuffer sets the outbound queue length of new sessions.
func WithSessionBuffer(n int) Option {
	return optionFunc(func(h *Hub) { h.buffer = n })
}

// WithTeardownTimeout bounds disconnect notifications.
func WithTeardownTimeout(d time.Duration) Option {
	return optionFunc(func(h *Hub) {
		if d > 0 {
			h.teardownTimeout = d
		}
	})
}

// WithClock replaces the clock used to date messages.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(h *Hub) { h.Relay.now = now })
}

// Hub binds sessions to users and routes client intents to the presence,
// relay, receipt and lifecycle components. Transports call Attach once per
// authenticated connection, Dispatch for each incoming intent in arrival
// order, and Detach when the connection ends.
type Hub struct {
	log             *zap.Logger
	reg             *Registry
	buffer          int
	teardownTimeout time.Duration

	Presence *Presence
	Relay    *Relay
	Receipts *Receipts
	Notifier *Notifier
}

// NewHub wires a hub over store.
func NewHub(log *zap.Logger, store Store, opts ...Option) *Hub {
	reg := NewRegistry()
	h := &Hub{
		log:             log,
		reg:             reg,
		buffer:          DefaultBuffer,
		teardownTimeout: DefaultTeardownTimeout,
		Presence:        NewPresence(log, reg, store),
		Relay:           NewRelay(reg, store),
		Receipts:        NewReceipts(reg, store),
		Notifier:        NewNotifier(reg, store),
	}
	for _, o := range opts {
		o.apply(h)
	}
	return h
}

// Registry exposes the session registry.
func (h *Hub) Registry() *Registry { return h.reg }

// Attach opens and registers a session for an authenticated user.
func (h *Hub) Attach(userID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: nil user", errs.ErrUnauthorized)
	}
	s := NewSession(userID, h.buffer)
	first, err := h.reg.Register(s)
	if err != nil {
		return nil, err
	}
	h.log.Debug("session attached",
		zap.String("session", s.ID), zap.Stringer("user", userID), zap.Bool("first", first))
	return s, nil
}

// Detach unregisters and closes s. When it was the user's last session,
// every reachable peer is told the user left. Calling Detach again is a
// no-op.
func (h *Hub) Detach(s *Session) {
	last := h.reg.Unregister(s)
	s.Close()
	if d := s.Dropped(); d > 0 {
		h.log.Warn("session dropped events", zap.String("session", s.ID), zap.Int64("dropped", d))
	}
	if !last {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.teardownTimeout)
	defer cancel()
	h.Presence.Disconnect(ctx, s.UserID)
	h.log.Debug("user offline", zap.Stringer("user", s.UserID))
}

// Handle runs one intent from session s.
func (h *Hub) Handle(ctx context.Context, s *Session, in Intent) error {
	me := s.UserID
	switch in.Type {
	case IntentGetUsersOnline:
		return h.Presence.QueryPeers(ctx, me)
	case IntentUserAlreadyOnline:
		if err := requireIDs(in.ChatID, in.UserID); err != nil {
			return err
		}
		return h.Presence.AnnounceOnline(ctx, me, in.ChatID, in.UserID)
	case IntentReadAllLastMessages:
		if err := requireIDs(in.ChatID, in.UserID); err != nil {
			return err
		}
		_, err := h.Receipts.MarkRead(ctx, me, in.ChatID, in.UserID)
		return err
	case IntentCreateNewChatRequest, IntentCreateNewChat, IntentChatDeleted:
		// Lifecycle hints are pushed by the chat service once the change is
		// stored. Client announcements are accepted for compatibility and
		// never forwarded.
		return nil
	case IntentSendMessage:
		if err := requireIDs(in.ChatID); err != nil {
			return err
		}
		_, err := h.Relay.Send(ctx, me, in.ChatID, in.Content)
		return err
	default:
		return fmt.Errorf("%w: unknown event %q", errs.ErrInvalidArgument, in.Type)
	}
}

// Dispatch runs Handle and reports a failure back to s only. Other
// sessions are never affected by one event's failure.
func (h *Hub) Dispatch(ctx context.Context, s *Session, in Intent) {
	err := h.Handle(ctx, s, in)
	if err == nil {
		return
	}
	lvl := h.log.Warn
	if errors.Is(err, errs.ErrInvalidArgument) || errors.Is(err, errs.ErrNotChatMember) || errors.Is(err, errs.ErrNotFound) {
		lvl = h.log.Info
	}
	lvl("event failed",
		zap.String("session", s.ID),
		zap.Stringer("user", s.UserID),
		zap.String("type", in.Type),
		zap.Error(err),
	)
	s.Push(ErrorEvent(err))
}

// Close closes every session and refuses new ones.
func (h *Hub) Close() { h.reg.Close() }

// Closed reports whether the hub refuses new sessions.
func (h *Hub) Closed() bool { return h.reg.Closed() }

func requireIDs(ids ...uuid.UUID) error {
	for _, id := range ids {
		if id == uuid.Nil {
			return fmt.Errorf("%w: missing id", errs.ErrInvalidArgument)
		}
	}
	return nil
}
