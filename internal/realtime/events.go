package realtime

import "github.com/pushp314/chatbridge-backend/internal/models"

// Outbound event names
const (
	EventNewMessage     = "new-message"
	EventMessageDeleted = "message-deleted"
	EventMessagesRead   = "messages-read"
	EventPresence       = "presence_update"
	EventOnlineUsers    = "online_users"
	EventTyping         = "user_typing"
)

// Inbound event names, shared by both transports
const (
	EventJoin           = "join"
	EventTypingStart    = "typing"
	EventGetOnlineUsers = "get_online_users"
)

type MessageEvent struct {
	Message *models.Message    `json:"message"`
	Sender  models.UserProfile `json:"sender"`
}

type MessageDeletedEvent struct {
	MessageID uint `json:"messageId"`
}

type MessagesReadEvent struct {
	ReaderID uint  `json:"readerId"`
	Count    int64 `json:"count"`
}

type PresenceEvent struct {
	UserID   uint `json:"userId"`
	IsOnline bool `json:"isOnline"`
}

type TypingEvent struct {
	UserID    uint  `json:"userId"`
	ExpiresAt int64 `json:"expiresAt"`
}

// TypingRequest is what a client sends while composing
type TypingRequest struct {
	ReceiverID uint `json:"receiverId"`
}
