package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/and161185/pairchat/internal/auth"
	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/limiter"
	"github.com/and161185/pairchat/internal/model"
	"github.com/and161185/pairchat/internal/repository"
	"github.com/gofrs/uuid/v5"
)

type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
	updateErr error

	searchArgs struct{ limit, offset int }
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers(us ...*model.User) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]*model.User{}}
	for _, u := range us {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, x := range f.byEmail {
		if x.Name == u.Name {
			return errs.ErrAlreadyExists
		}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) Search(_ context.Context, exclude uuid.UUID, search string, limit, offset int) ([]model.Profile, int, error) {
	f.searchArgs.limit, f.searchArgs.offset = limit, offset
	var all []model.Profile
	for _, u := range f.byEmail {
		if u.ID != exclude && strings.Contains(strings.ToLower(u.Name), strings.ToLower(search)) {
			all = append(all, u.Profile())
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	return all[offset:min(offset+limit, total)], total, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash, salt []byte) (int64, error) {
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			u.PwdHash, u.PwdSalt = hash, salt
			u.PasswordVersion++
			u.ResetHash, u.ResetSalt, u.ResetExpires = nil, nil, time.Time{}
			return u.PasswordVersion, nil
		}
	}
	return 0, errs.ErrNotFound
}

func (f *fakeUsers) SetResetToken(_ context.Context, id uuid.UUID, hash, salt []byte, expires time.Time) error {
	for _, u := range f.byEmail {
		if u.ID == id {
			u.ResetHash, u.ResetSalt, u.ResetExpires = hash, salt, expires
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	lastKey      limiter.Key
	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(_ context.Context, k limiter.Key) (bool, time.Duration, error) {
	l.allowCalls++
	l.lastKey = k
	return l.allowOK, 0, l.allowErr
}

func (l *fakeLimiter) Success(context.Context, limiter.Key) error {
	l.successCalls++
	return l.successErr
}

func (l *fakeLimiter) Failure(context.Context, limiter.Key) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type fakeMailer struct {
	to, code string
	err      error
}

func (m *fakeMailer) SendResetCode(_ context.Context, to, code string) error {
	m.to, m.code = to, code
	return m.err
}

type fakeChats struct {
	chats     map[uuid.UUID]*model.Chat
	views     []model.ChatView
	requests  *fakeRequests
	createErr error
	deleted   []uuid.UUID
}

var _ repository.ChatRepository = (*fakeChats)(nil)

func (f *fakeChats) GetByID(_ context.Context, id uuid.UUID) (*model.Chat, error) {
	c, ok := f.chats[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeChats) IDsByUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, c := range f.chats {
		if c.HasMember(userID) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeChats) ListByUser(context.Context, uuid.UUID) ([]model.ChatView, error) {
	return f.views, nil
}

func (f *fakeChats) ExistsBetween(_ context.Context, a, b uuid.UUID) (bool, error) {
	for _, c := range f.chats {
		if c.HasMember(a) && c.HasMember(b) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChats) CreateFromRequest(_ context.Context, requestID, receiverID, chatID uuid.UUID) (*model.Chat, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	r, ok := f.requests.byID[requestID]
	if !ok || r.ReceiverID != receiverID {
		return nil, errs.ErrNotFound
	}
	delete(f.requests.byID, requestID)
	c := &model.Chat{ID: chatID, Users: []uuid.UUID{r.SenderID, r.ReceiverID}}
	f.chats[chatID] = c
	return c, nil
}

func (f *fakeChats) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.chats[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.chats, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRequests struct {
	byID map[uuid.UUID]*model.ChatRequest
}

var _ repository.RequestRepository = (*fakeRequests)(nil)

func (f *fakeRequests) Create(_ context.Context, r *model.ChatRequest) error {
	for _, x := range f.byID {
		if (x.SenderID == r.SenderID && x.ReceiverID == r.ReceiverID) ||
			(x.SenderID == r.ReceiverID && x.ReceiverID == r.SenderID) {
			return errs.ErrRequestExists
		}
	}
	cp := *r
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakeRequests) GetByID(_ context.Context, id uuid.UUID) (*model.ChatRequest, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) ListByReceiver(_ context.Context, receiverID uuid.UUID) ([]model.ChatRequest, error) {
	var out []model.ChatRequest
	for _, r := range f.byID {
		if r.ReceiverID == receiverID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRequests) Delete(_ context.Context, id, receiverID uuid.UUID) error {
	r, ok := f.byID[id]
	if !ok || r.ReceiverID != receiverID {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type notified struct {
	kind string
	a, b uuid.UUID
}

type fakeNotifier struct {
	mu        sync.Mutex
	events    []notified
	createErr error
}

var _ Notifier = (*fakeNotifier)(nil)

func (n *fakeNotifier) add(kind string, a, b uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notified{kind: kind, a: a, b: b})
}

func (n *fakeNotifier) RequestCreated(_ context.Context, senderID, receiverID uuid.UUID) {
	n.add("request", senderID, receiverID)
}

func (n *fakeNotifier) ChatCreated(_ context.Context, chatID, initiatorID uuid.UUID) error {
	n.add("chat", chatID, initiatorID)
	return n.createErr
}

func (n *fakeNotifier) ChatDeleted(_ context.Context, chatID, remainingID uuid.UUID) {
	n.add("deleted", chatID, remainingID)
}

func newTokens(users auth.UserLookup) *auth.Tokens {
	return auth.NewTokens([]byte("secret"), time.Minute, users)
}
