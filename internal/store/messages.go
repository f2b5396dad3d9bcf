package store

import (
	"context"
	"errors"
	"time"

	"github.com/pushp314/chatbridge-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup matches nothing
var ErrNotFound = errors.New("record not found")

// MessageStore persists messages through gorm. Soft-deleted rows are invisible to
// every query.
type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create inserts msg and fills its ID and CreatedAt
func (s *MessageStore) Create(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error
}

// Get loads a message with its sender and receiver
func (s *MessageStore) Get(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListForUser returns every message sent or received by userID, newest first.
// Ties on created_at are broken by the higher id.
func (s *MessageStore) ListForUser(ctx context.Context, userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&messages).Error
	return messages, err
}

// ListBetween returns the thread between two users, oldest first
func (s *MessageStore) ListBetween(ctx context.Context, userID, otherID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC").
		Order("id ASC").
		Preload("Sender").
		Find(&messages).Error
	return messages, err
}

// ListInbound returns messages a user sent with no receiver, oldest first.
// These come from external channels and only show up in the sender's own thread.
func (s *MessageStore) ListInbound(ctx context.Context, senderID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id IS NULL", senderID).
		Order("created_at ASC").
		Order("id ASC").
		Preload("Sender").
		Find(&messages).Error
	return messages, err
}

// Delete soft-deletes a message
func (s *MessageStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Message{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRead flags every unread message from senderID to readerID as read
func (s *MessageStore) MarkRead(ctx context.Context, readerID, senderID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, readerID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
