package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memStore is an in-memory Store.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*model.User
	chats    map[uuid.UUID]*model.Chat
	messages []model.Message

	failCreate   error
	failMarkRead error
	findChatErr  error
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]*model.User{}, chats: map[uuid.UUID]*model.Chat{}}
}

func (s *memStore) addUser(name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.Must(uuid.NewV4())
	s.users[id] = &model.User{ID: id, Name: name, Email: name + "@x.io"}
	return id
}

func (s *memStore) addChat(members ...uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.Must(uuid.NewV4())
	s.chats[id] = &model.Chat{ID: id, Users: members}
	for _, m := range members {
		if u, ok := s.users[m]; ok {
			u.Chats = append(u.Chats, id)
		}
	}
	return id
}

func (s *memStore) dropChat(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, id)
}

func (s *memStore) FindUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *u
	cp.Chats = append([]uuid.UUID(nil), u.Chats...)
	return &cp, nil
}

func (s *memStore) FindChat(_ context.Context, id uuid.UUID) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findChatErr != nil {
		return nil, s.findChatErr
	}
	c, ok := s.chats[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *c
	cp.Users = append([]uuid.UUID(nil), c.Users...)
	cp.Messages = append([]uuid.UUID(nil), c.Messages...)
	return &cp, nil
}

func (s *memStore) CreateMessage(_ context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	c, ok := s.chats[m.ChatID]
	if !ok {
		return errs.ErrNotFound
	}
	c.Messages = append(c.Messages, m.ID)
	s.messages = append(s.messages, *m)
	return nil
}

func (s *memStore) MarkMessagesRead(_ context.Context, chatID, authorID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMarkRead != nil {
		return 0, s.failMarkRead
	}
	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.ChatID == chatID && m.AuthorID == authorID && !m.Readed {
			m.Readed = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) chatMessages(chatID uuid.UUID) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func newTestHub(t *testing.T, store Store, opts ...Option) *Hub {
	t.Helper()
	h := NewHub(zaptest.NewLogger(t), store, opts...)
	t.Cleanup(h.Close)
	return h
}

func attach(t *testing.T, h *Hub, user uuid.UUID) *Session {
	t.Helper()
	s, err := h.Attach(user)
	require.NoError(t, err)
	return s
}

// recv returns the next queued event of s or fails.
func recv(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case e := <-s.Events():
		return e
	case <-time.After(time.Second):
		t.Fatalf("session %s: no event", s.ID)
		return Event{}
	}
}

// drained returns every event currently queued on s.
func drained(s *Session) []Event {
	var out []Event
	for {
		select {
		case e := <-s.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

// hookStore runs beforeFindChat ahead of every chat lookup.
type hookStore struct {
	*memStore
	beforeFindChat func()
}

func (s *hookStore) FindChat(ctx context.Context, id uuid.UUID) (*model.Chat, error) {
	if s.beforeFindChat != nil {
		s.beforeFindChat()
	}
	return s.memStore.FindChat(ctx, id)
}
