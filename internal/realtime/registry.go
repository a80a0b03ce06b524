package realtime

import (
	"errors"
	"sync"

	"github.com/gofrs/uuid/v5"
)

// ErrRegistryClosed is returned by Register after Close.
var ErrRegistryClosed = errors.New("registry closed")

// Registry maps each user to the set of their live sessions. A user with
// at least one session is reachable. It is the only shared mutable state
// of the package and is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[string]*Session
	closed   bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]map[string]*Session)}
}

// Register adds s under s.UserID and reports whether it is the user's
// first live session.
func (r *Registry) Register(s *Session) (first bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, ErrRegistryClosed
	}
	set, ok := r.sessions[s.UserID]
	if !ok {
		set = make(map[string]*Session)
		r.sessions[s.UserID] = set
	}
	set[s.ID] = s
	return len(set) == 1, nil
}

// Unregister removes s and reports whether its user just became
// unreachable. Removing a session that is not registered is a no-op that
// reports false.
func (r *Registry) Unregister(s *Session) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sessions[s.UserID]
	if !ok {
		return false
	}
	if _, ok := set[s.ID]; !ok {
		return false
	}
	delete(set, s.ID)
	if len(set) == 0 {
		delete(r.sessions, s.UserID)
		return true
	}
	return false
}

// SessionsFor returns a snapshot of userID's live sessions.
func (r *Registry) SessionsFor(userID uuid.UUID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.sessions[userID]
	out := make([]*Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// IsReachable reports whether userID has at least one live session.
func (r *Registry) IsReachable(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}

// Push delivers e to every live session of userID and returns how many
// accepted it. Zero sessions means zero deliveries and no error.
func (r *Registry) Push(userID uuid.UUID, e Event) int {
	n := 0
	for _, s := range r.SessionsFor(userID) {
		if s.Push(e) {
			n++
		}
	}
	return n
}

// Stats returns the number of reachable users and live sessions.
func (r *Registry) Stats() (users, sessions int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, set := range r.sessions {
		sessions += len(set)
	}
	return len(r.sessions), sessions
}

// Closed reports whether Close has been called.
func (r *Registry) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Close closes every session and refuses further registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[uuid.UUID]map[string]*Session)
	r.closed = true
	r.mu.Unlock()

	for _, set := range all {
		for _, s := range set {
			s.Close()
		}
	}
}
