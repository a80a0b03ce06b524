// Package convert maps domain values to and from the chatv1 wire types.
package convert

import (
	"fmt"

	"github.com/and161185/pairchat/api/chatv1"
	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/and161185/pairchat/internal/realtime"
	u "github.com/gofrs/uuid/v5"
	"github.com/samber/lo"
)

// --- helpers ---

func idStr(id u.UUID) string {
	if id == u.Nil {
		return ""
	}
	return id.String()
}

// ParseID parses a wire id. An empty string is the nil id; anything else
// that is not a UUID is an invalid argument.
func ParseID(field, s string) (u.UUID, error) {
	if s == "" {
		return u.Nil, nil
	}
	id, err := u.FromString(s)
	if err != nil {
		return u.Nil, fmt.Errorf("%w: %s: %v", errs.ErrInvalidArgument, field, err)
	}
	return id, nil
}

// --- accounts ---

// ToAuthResponse pairs an issued token with its user.
func ToAuthResponse(t model.Tokens, usr model.User) *chatv1.AuthResponse {
	return &chatv1.AuthResponse{
		UserID:      usr.ID.String(),
		Name:        usr.Name,
		Email:       usr.Email,
		AccessToken: t.AccessToken,
		ExpiresAt:   t.ExpiresAt.UTC(),
	}
}

func ToUser(p model.Profile) chatv1.User {
	return chatv1.User{ID: idStr(p.ID), Name: p.Name, Email: p.Email}
}

func ToUsers(ps []model.Profile) []chatv1.User {
	return lo.Map(ps, func(p model.Profile, _ int) chatv1.User { return ToUser(p) })
}

// ToUserPage converts one page of search results.
func ToUserPage(p model.UserPage) *chatv1.ListUsersResponse {
	return &chatv1.ListUsersResponse{Users: ToUsers(p.Users), TotalPages: p.TotalPages}
}

// --- requests ---

func ToChatRequest(r model.ChatRequest) chatv1.ChatRequest {
	out := chatv1.ChatRequest{
		ID:         idStr(r.ID),
		SenderID:   idStr(r.SenderID),
		ReceiverID: idStr(r.ReceiverID),
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.Sender != nil {
		s := ToUser(*r.Sender)
		out.Sender = &s
	}
	return out
}

func ToChatRequests(rs []model.ChatRequest) []chatv1.ChatRequest {
	return lo.Map(rs, func(r model.ChatRequest, _ int) chatv1.ChatRequest { return ToChatRequest(r) })
}

// --- chats ---

func ToMessage(m model.Message) chatv1.Message {
	return chatv1.Message{
		ID:       idStr(m.ID),
		ChatID:   idStr(m.ChatID),
		AuthorID: idStr(m.AuthorID),
		Content:  m.Content,
		Date:     m.Date.UTC(),
		Readed:   m.Readed,
	}
}

// ToChat converts a chat as seen by one member.
func ToChat(c model.ChatView) chatv1.Chat {
	return chatv1.Chat{
		ID:       idStr(c.ID),
		User:     ToUser(c.User),
		Messages: lo.Map(c.Messages, func(m model.Message, _ int) chatv1.Message { return ToMessage(m) }),
	}
}

func ToChats(cs []model.ChatView) []chatv1.Chat {
	return lo.Map(cs, func(c model.ChatView, _ int) chatv1.Chat { return ToChat(c) })
}

// --- real-time ---

// ToServerEvent converts a pushed event to its wire frame.
func ToServerEvent(e realtime.Event) *chatv1.ServerEvent {
	out := &chatv1.ServerEvent{
		Type:      e.Type,
		ChatID:    idStr(e.ChatID),
		UserID:    idStr(e.UserID),
		MessageID: idStr(e.MessageID),
		Content:   e.Content,
		Error:     e.Error,
	}
	if !e.Date.IsZero() {
		d := e.Date.UTC()
		out.Date = &d
	}
	if e.Chat != nil {
		out.Chat = &chatv1.Chat{ID: idStr(e.Chat.ID), User: ToUser(e.Chat.User)}
	}
	return out
}

// IntentFromClientEvent validates the ids of a client frame.
func IntentFromClientEvent(in *chatv1.ClientEvent) (realtime.Intent, error) {
	if in == nil || in.Type == "" {
		return realtime.Intent{}, fmt.Errorf("%w: missing event type", errs.ErrInvalidArgument)
	}
	chatID, err := ParseID("chatId", in.ChatID)
	if err != nil {
		return realtime.Intent{}, err
	}
	userID, err := ParseID("userId", in.UserID)
	if err != nil {
		return realtime.Intent{}, err
	}
	return realtime.Intent{Type: in.Type, ChatID: chatID, UserID: userID, Content: in.Content}, nil
}
