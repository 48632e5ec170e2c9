package ws

import "chat-api/internal/models"

// Frame types on the wire. The client sends only "message-open"; everything
// else is server to client.
const (
	frameMessageOpen = "message-open"
	frameNewMessage  = "new-message"
	frameUnfriend    = "unfriend"
)

// inboundFrame is the single client-to-server signal: the user opened (or
// closed, userId null) the chat with another user.
type inboundFrame struct {
	Type   string  `json:"type"`
	UserID *string `json:"userId"`
}

// NewMessageFrame pushes a freshly persisted message to its recipient.
type NewMessageFrame struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

func NewMessage(m *models.Message) NewMessageFrame {
	return NewMessageFrame{Type: frameNewMessage, Message: m}
}

// UnfriendFrame is a reserved outbound kind. It is part of the wire protocol
// the client understands but nothing emits it yet.
type UnfriendFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

func Unfriend(userID string) UnfriendFrame {
	return UnfriendFrame{Type: frameUnfriend, UserID: userID}
}
