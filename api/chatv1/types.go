// Package chatv1 defines the PairChat wire API: request and response
// messages, the JSON codec they travel in, and the gRPC service descriptor.
package chatv1

import "time"

// Event types sent by clients on the Connect stream.
const (
	ClientGetUsersOnline       = "getUsersOnline"
	ClientUserAlreadyOnline    = "userAlreadyOnline"
	ClientChatDeleted          = "chatDeleted"
	ClientReadAllLastMessages  = "readAllLastMessages"
	ClientCreateNewChatRequest = "createNewChatRequest"
	ClientCreateNewChat        = "createNewChat"
	ClientSendMessage          = "sendMessage"
)

// Event types sent by the server on the Connect stream.
const (
	ServerUserOnlineVerify   = "userOnlineVerify"
	ServerUserOnline         = "userOnline"
	ServerUserDisconnect     = "userDisconnect"
	ServerRemoveChat         = "removeChat"
	ServerLastMessagesReaded = "lastMessagesReaded"
	ServerNewChatRequest     = "newChatRequest"
	ServerNewChat            = "newChat"
	ServerMessage            = "message"
	ServerError              = "error"
)

// Chat request responses.
const (
	ActionConfirm = "confirm"
	ActionDecline = "decline"
)

// Empty is used where a call carries no payload.
type Empty struct{}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by every call that issues an access token.
type AuthResponse struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ListUsersRequest struct {
	Search string `json:"search,omitempty"`
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ListUsersResponse struct {
	Users      []User `json:"users"`
	TotalPages int    `json:"totalPages"`
}

type ChatRequest struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Sender     *User     `json:"sender,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type SendChatRequestRequest struct {
	UserID string `json:"userId"`
}

type SendChatRequestResponse struct {
	Request ChatRequest `json:"request"`
}

type RespondChatRequestRequest struct {
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
}

type RespondChatRequestResponse struct {
	ChatID string `json:"chatId,omitempty"`
}

type ListChatRequestsResponse struct {
	Requests []ChatRequest `json:"requests"`
}

type Message struct {
	ID       string    `json:"id"`
	ChatID   string    `json:"chatId"`
	AuthorID string    `json:"userId"`
	Content  string    `json:"content"`
	Date     time.Time `json:"date"`
	Readed   bool      `json:"readed"`
}

type Chat struct {
	ID       string    `json:"id"`
	User     User      `json:"user"`
	Messages []Message `json:"messages,omitempty"`
}

type ListChatsResponse struct {
	Chats []Chat `json:"chats"`
}

type DeleteChatRequest struct {
	ChatID string `json:"chatId"`
}

// ClientEvent is one frame sent by a client on the real-time channel.
type ClientEvent struct {
	Type    string `json:"type"`
	ChatID  string `json:"chatId,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Content string `json:"content,omitempty"`
}

// ServerEvent is one frame pushed by the server on the real-time channel.
type ServerEvent struct {
	Type      string     `json:"type"`
	ChatID    string     `json:"chatId,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	MessageID string     `json:"messageId,omitempty"`
	Content   string     `json:"content,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	Chat      *Chat      `json:"chat,omitempty"`
	Error     string     `json:"error,omitempty"`
}
