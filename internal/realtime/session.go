package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/xid"
)

// DefaultBuffer is the outbound queue length of a session.
const DefaultBuffer = 64

// Session is one live connection of a user. The transport drains Events
// and writes them to the wire; everyone else only calls Push.
type Session struct {
	ID     string
	UserID uuid.UUID

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

// NewSession creates a session for userID with an outbound buffer of size
// buffer (DefaultBuffer when not positive).
func NewSession(userID uuid.UUID, buffer int) *Session {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Session{
		ID:     xid.New().String(),
		UserID: userID,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Push queues e without blocking. It reports false when the session is
// closed or its queue is full; a full queue counts as a drop.
func (s *Session) Push(e Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- e:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Events is the outbound queue. It is never closed; select on Done too.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close marks the session closed. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Dropped reports how many events were discarded on a full queue.
func (s *Session) Dropped() int64 { return s.dropped.Load() }
