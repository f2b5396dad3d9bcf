package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MessageType is the closed set of message kinds
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageAudio    MessageType = "audio"
	MessageDocument MessageType = "document"
	MessageVideo    MessageType = "video"
)

var messageTypes = map[MessageType]struct{}{
	MessageText:     {},
	MessageImage:    {},
	MessageAudio:    {},
	MessageDocument: {},
	MessageVideo:    {},
}

// ParseMessageType validates a raw type tag. An empty tag means text.
func ParseMessageType(raw string) (MessageType, error) {
	t := MessageType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" {
		return MessageText, nil
	}
	if _, ok := messageTypes[t]; !ok {
		return "", fmt.Errorf("unsupported message type %q", raw)
	}
	return t, nil
}

func (t MessageType) Valid() bool {
	_, ok := messageTypes[t]
	return ok
}

// HasAttachment reports whether the kind carries a media payload
func (t MessageType) HasAttachment() bool {
	return t.Valid() && t != MessageText
}

// MediaMetadata describes an attachment; stored as a JSON column
type MediaMetadata struct {
	OriginalName string     `json:"originalName,omitempty"`
	URL          string     `json:"url,omitempty"`
	MimeType     string     `json:"mimetype,omitempty"`
	Size         int64      `json:"size,omitempty"`
	DownloadedAt *time.Time `json:"downloadedAt,omitempty"`
}

func (m MediaMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MediaMetadata) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into MediaMetadata", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Message is a single exchange. A nil ReceiverID marks an inbound message from an
// external channel with no reply target.
type Message struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SenderID   uint           `gorm:"index;not null" json:"senderId"`
	ReceiverID *uint          `gorm:"index" json:"receiverId"`
	Type       MessageType    `gorm:"type:text;default:'text';not null" json:"type"`
	Content    *string        `gorm:"type:text" json:"content"`
	MediaURL   *string        `json:"mediaUrl"`
	Metadata   *MediaMetadata `gorm:"type:text" json:"metadata"`
	IsRead     bool           `gorm:"default:false" json:"isRead"`
	ReadAt     *time.Time     `json:"readAt"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// Counterpart returns the other party of the message as seen by userID, or nil
// when there is none (inbound messages viewed by their sender).
func (m *Message) Counterpart(userID uint) *uint {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	sender := m.SenderID
	return &sender
}

// IsEmpty reports whether the message carries neither text nor an attachment
func (m *Message) IsEmpty() bool {
	noText := m.Content == nil || strings.TrimSpace(*m.Content) == ""
	noMedia := m.MediaURL == nil || strings.TrimSpace(*m.MediaURL) == ""
	return noText && noMedia
}
