// Package model defines domain entities used by services, repositories and the realtime hub.
package model

import (
	"fmt"
	"time"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/gofrs/uuid/v5"
)

// Tokens is an issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry
}

// User represents an account stored on the server.
type User struct {
	ID              uuid.UUID // PK
	Name            string    // unique
	Email           string    // unique, lower-cased
	PwdHash         []byte    // Argon2id(password, PwdSalt)
	PwdSalt         []byte
	PasswordVersion int64 // bumped on every password change; tokens carry it

	// Pending password reset. ResetExpires is the zero time when none is pending.
	ResetHash    []byte
	ResetSalt    []byte
	ResetExpires time.Time

	Chats     []uuid.UUID // ids of chats the user belongs to, when loaded
	CreatedAt time.Time
}

// Profile is the public part of a user.
type Profile struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Profile returns the public projection of u.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Chat is a conversation between exactly two users.
type Chat struct {
	ID        uuid.UUID
	Users     []uuid.UUID
	Messages  []uuid.UUID // ordered by creation, when loaded
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasMember reports whether id is one of the chat's users.
func (c Chat) HasMember(id uuid.UUID) bool {
	for _, u := range c.Users {
		if u == id {
			return true
		}
	}
	return false
}

// OtherMember returns the member of c that is not caller.
//
// It fails with errs.ErrInvariant unless the chat has exactly two distinct
// members, and with errs.ErrNotChatMember when caller is not one of them.
func (c Chat) OtherMember(caller uuid.UUID) (uuid.UUID, error) {
	if len(c.Users) != 2 || c.Users[0] == c.Users[1] {
		return uuid.Nil, fmt.Errorf("%w: chat %s has members %v", errs.ErrInvariant, c.ID, c.Users)
	}
	switch caller {
	case c.Users[0]:
		return c.Users[1], nil
	case c.Users[1]:
		return c.Users[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%w: user %s in chat %s", errs.ErrNotChatMember, caller, c.ID)
	}
}

// Message is one chat message. Readed flips false→true once and never back.
type Message struct {
	ID       uuid.UUID
	ChatID   uuid.UUID
	AuthorID uuid.UUID
	Content  string
	Date     time.Time
	Readed   bool
}

// ChatRequest is a pending invitation to open a chat.
type ChatRequest struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Sender     *Profile // populated on listing
	CreatedAt  time.Time
}

// ChatSummary is what a peer learns about a newly created chat.
type ChatSummary struct {
	ID   uuid.UUID
	User Profile // the other party from the recipient's point of view
}

// ChatView is a full chat as listed to one of its members.
type ChatView struct {
	ID       uuid.UUID
	User     Profile // the peer
	Messages []Message
}

// UserPage is one page of a user search.
type UserPage struct {
	Users      []Profile
	TotalPages int
}
