package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/pushp314/chatbridge-backend/internal/metrics"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/store"
	apperrors "github.com/pushp314/chatbridge-backend/pkg/errors"
	"github.com/rs/zerolog"
)

// Origins of a created message, used as a metrics label
const (
	OriginDirect  = "direct"
	OriginInbound = "inbound"
)

// CreateMessageRequest is the canonical input for storing a message, whether it
// came from the HTTP API or an external channel.
type CreateMessageRequest struct {
	SenderID   uint                  `validate:"required"`
	ReceiverID *uint                 `validate:"omitempty,gt=0"`
	Type       string                `validate:"omitempty,max=32"`
	Content    *string               `validate:"omitempty"`
	MediaURL   *string               `validate:"omitempty,max=2048"`
	Metadata   *models.MediaMetadata `validate:"-"`
	Origin     string                `validate:"omitempty,oneof=direct inbound"`
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	Get(ctx context.Context, id uint) (*models.Message, error)
	ListBetween(ctx context.Context, userID, otherID uint) ([]models.Message, error)
	ListInbound(ctx context.Context, senderID uint) ([]models.Message, error)
	Delete(ctx context.Context, id uint) error
	MarkRead(ctx context.Context, readerID, senderID uint) (int64, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Notifier receives message lifecycle events after they are persisted
type Notifier interface {
	MessageCreated(msg *models.Message)
	MessageDeleted(msg *models.Message)
	MessagesRead(readerID, senderID uint, count int64)
}

type MessageService struct {
	messages  MessageRepository
	users     UserDirectory
	notifier  Notifier
	validator *validator.Validate
	log       zerolog.Logger
}

func NewMessageService(messages MessageRepository, users UserDirectory, notifier Notifier, log zerolog.Logger) *MessageService {
	return &MessageService{
		messages:  messages,
		users:     users,
		notifier:  notifier,
		validator: validator.New(),
		log:       log.With().Str("component", "messages").Logger(),
	}
}

// Create validates, stores and then pushes a message. The push is best effort;
// once the message is stored Create succeeds.
func (s *MessageService) Create(ctx context.Context, req CreateMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.BadRequest("invalid message: " + err.Error())
	}

	kind, err := models.ParseMessageType(req.Type)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	msg := &models.Message{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Type:       kind,
		MediaURL:   req.MediaURL,
		Metadata:   req.Metadata,
	}

	if req.Content != nil {
		maxLen := MaxMessageLength
		if kind.HasAttachment() {
			maxLen = MaxCaptionLength
		}
		clean := SanitizeMessageContent
		if req.Origin == OriginInbound {
			clean = LimitMessageContent
		}
		content, err := clean(*req.Content, maxLen)
		switch {
		case errors.Is(err, errContentTooLong):
			return nil, apperrors.BadRequest(err.Error())
		case err == nil:
			msg.Content = &content
		}
	}

	if msg.IsEmpty() {
		return nil, apperrors.BadRequest("message needs content or an attachment")
	}
	if kind == models.MessageText && msg.Content == nil {
		return nil, apperrors.BadRequest("text message cannot be empty")
	}

	if req.ReceiverID != nil {
		if _, err := s.users.GetByID(ctx, *req.ReceiverID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperrors.NotFound("receiver not found")
			}
			return nil, fmt.Errorf("look up receiver %d: %w", *req.ReceiverID, err)
		}
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	origin := req.Origin
	if origin == "" {
		origin = OriginDirect
	}
	metrics.MessagesCreated.WithLabelValues(string(kind), origin).Inc()

	saved, err := s.messages.Get(ctx, msg.ID)
	if err != nil {
		s.log.Warn().Err(err).Uint("message_id", msg.ID).Msg("Reload after create failed")
		saved = msg
	}

	s.notifier.MessageCreated(saved)
	return saved, nil
}

// Delete soft-deletes a message. Only its sender may delete it.
func (s *MessageService) Delete(ctx context.Context, userID, messageID uint) error {
	msg, err := s.messages.Get(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("message not found")
	}
	if err != nil {
		return fmt.Errorf("load message %d: %w", messageID, err)
	}
	if msg.SenderID != userID {
		return apperrors.Forbidden("only the sender can delete a message")
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("message not found")
		}
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}

	s.notifier.MessageDeleted(msg)
	return nil
}

// Thread returns every message between userID and otherID, oldest first.
// When otherID is an external contact its inbound messages are part of the thread.
func (s *MessageService) Thread(ctx context.Context, userID, otherID uint) ([]models.Message, error) {
	messages, err := s.messages.ListBetween(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("list thread %d/%d: %w", userID, otherID, err)
	}

	other, err := s.users.GetByID(ctx, otherID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("look up user %d: %w", otherID, err)
	case other.Source == models.SourceWhatsApp && userID != otherID:
		inbound, err := s.messages.ListInbound(ctx, otherID)
		if err != nil {
			return nil, fmt.Errorf("list inbound %d: %w", otherID, err)
		}
		messages = append(messages, inbound...)
		sort.SliceStable(messages, func(i, j int) bool {
			if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
				return messages[i].CreatedAt.Before(messages[j].CreatedAt)
			}
			return messages[i].ID < messages[j].ID
		})
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// MarkRead flags every unread message from senderID to readerID as read
func (s *MessageService) MarkRead(ctx context.Context, readerID, senderID uint) (int64, error) {
	count, err := s.messages.MarkRead(ctx, readerID, senderID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	s.notifier.MessagesRead(readerID, senderID, count)
	return count, nil
}
