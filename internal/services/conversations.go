package services

import (
	"context"
	"fmt"

	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// MessageLister is the slice of the message store the aggregator reads from
type MessageLister interface {
	// ListForUser returns messages sent or received by userID, newest first
	ListForUser(ctx context.Context, userID uint) ([]models.Message, error)
}

// UserLookup resolves many users in one round trip
type UserLookup interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
}

// Conversation is one row of a user's inbox
type Conversation struct {
	User        models.UserProfile `json:"user"`
	LastMessage models.Message     `json:"lastMessage"`
	SentByMe    bool               `json:"sentByMe"`
	UnreadCount int                `json:"unreadCount"`
}

type ConversationService struct {
	messages MessageLister
	users    UserLookup
	log      zerolog.Logger
}

func NewConversationService(messages MessageLister, users UserLookup, log zerolog.Logger) *ConversationService {
	return &ConversationService{
		messages: messages,
		users:    users,
		log:      log.With().Str("component", "conversations").Logger(),
	}
}

// ListConversations returns one entry per correspondent of userID, carrying
// the most recent message exchanged with them, most recent correspondent first.
// Messages without a counterpart are skipped. It fails only when the message
// store does.
func (s *ConversationService) ListConversations(ctx context.Context, userID uint) ([]Conversation, error) {
	messages, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages for user %d: %w", userID, err)
	}

	conversations := make([]Conversation, 0)
	index := make(map[uint]int)
	unread := make(map[uint]int)

	for _, msg := range messages {
		other := msg.Counterpart(userID)
		if other == nil {
			continue
		}
		if msg.SenderID != userID && !msg.IsRead {
			unread[*other]++
		}
		if _, seen := index[*other]; seen {
			continue
		}
		index[*other] = len(conversations)
		conversations = append(conversations, Conversation{
			User:        models.UserProfile{ID: *other},
			LastMessage: msg,
			SentByMe:    msg.SenderID == userID,
		})
	}

	if len(conversations) == 0 {
		return conversations, nil
	}

	ids := lo.Map(conversations, func(c Conversation, _ int) uint { return c.User.ID })
	profiles, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Correspondent lookup failed, using placeholders")
		profiles = nil
	}

	for i := range conversations {
		id := conversations[i].User.ID
		if u, ok := profiles[id]; ok {
			conversations[i].User = u.Profile()
		} else {
			conversations[i].User = models.PlaceholderProfile(id)
		}
		conversations[i].UnreadCount = unread[id]
	}

	return conversations, nil
}
