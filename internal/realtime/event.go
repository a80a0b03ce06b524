// Package realtime keeps track of connected sessions and fans chat events
// out to them.
//
// A user may hold any number of concurrent sessions. Every push goes to
// all of them, never blocks the sender, and is dropped silently when the
// target has no session. Durable state lives in a Store; this package only
// ever reads it or writes through it before pushing.
package realtime

import (
	"errors"
	"time"

	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Client intents.
const (
	IntentGetUsersOnline       = "getUsersOnline"
	IntentUserAlreadyOnline    = "userAlreadyOnline"
	IntentChatDeleted          = "chatDeleted"
	IntentReadAllLastMessages  = "readAllLastMessages"
	IntentCreateNewChatRequest = "createNewChatRequest"
	IntentCreateNewChat        = "createNewChat"
	IntentSendMessage          = "sendMessage"
)

// Server event types.
const (
	EventUserOnlineVerify   = "userOnlineVerify"
	EventUserOnline         = "userOnline"
	EventUserDisconnect     = "userDisconnect"
	EventRemoveChat         = "removeChat"
	EventLastMessagesReaded = "lastMessagesReaded"
	EventNewChatRequest     = "newChatRequest"
	EventNewChat            = "newChat"
	EventMessage            = "message"
	EventError              = "error"
)

// Intent is one event received from a client session.
type Intent struct {
	Type    string
	ChatID  uuid.UUID
	UserID  uuid.UUID
	Content string
}

// Event is one notification pushed to a session. Only the fields relevant
// to Type are set.
type Event struct {
	Type      string
	ChatID    uuid.UUID
	UserID    uuid.UUID
	MessageID uuid.UUID
	Content   string
	Date      time.Time
	Chat      *model.ChatSummary
	Error     string
}

// ErrorEvent describes err to the session that caused it without leaking
// internals.
func ErrorEvent(err error) Event {
	msg := "internal error"
	for _, known := range []error{
		errs.ErrNotFound, errs.ErrNotChatMember, errs.ErrInvalidArgument,
		errs.ErrInvariant, errs.ErrUnauthorized,
	} {
		if errors.Is(err, known) {
			msg = known.Error()
			break
		}
	}
	return Event{Type: EventError, Error: msg}
}
