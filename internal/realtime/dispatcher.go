package realtime

import (
	"fmt"
	"time"

	"github.com/pushp314/chatbridge-backend/internal/metrics"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/rs/zerolog"
)

const typingTTL = 4 * time.Second

// Dispatcher pushes events to the live connections of the users they concern.
// Every push is attempted once per connection; failures are logged and dropped,
// the caller never sees them.
type Dispatcher struct {
	registry *Registry
	log      zerolog.Logger
}

func NewDispatcher(registry *Registry, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// MessageCreated delivers a freshly stored message to its receiver. Messages
// without a receiver are not pushed anywhere.
func (d *Dispatcher) MessageCreated(msg *models.Message) {
	if msg == nil || msg.ReceiverID == nil {
		return
	}

	sender := models.PlaceholderProfile(msg.SenderID)
	if msg.Sender != nil {
		sender = msg.Sender.Profile()
	}

	d.Push(*msg.ReceiverID, EventNewMessage, MessageEvent{Message: msg, Sender: sender})
}

// MessageDeleted tells the original receiver a message is gone
func (d *Dispatcher) MessageDeleted(msg *models.Message) {
	if msg == nil || msg.ReceiverID == nil {
		return
	}
	d.Push(*msg.ReceiverID, EventMessageDeleted, MessageDeletedEvent{MessageID: msg.ID})
}

// MessagesRead tells senderID that readerID has read count of their messages
func (d *Dispatcher) MessagesRead(readerID, senderID uint, count int64) {
	if count <= 0 {
		return
	}
	d.Push(senderID, EventMessagesRead, MessagesReadEvent{ReaderID: readerID, Count: count})
}

// Typing relays a composing indicator
func (d *Dispatcher) Typing(from, to uint) {
	if from == to {
		return
	}
	d.Push(to, EventTyping, TypingEvent{UserID: from, ExpiresAt: time.Now().Add(typingTTL).Unix()})
}

// PresenceChanged announces userID coming online or going offline to everyone
// else who is online.
func (d *Dispatcher) PresenceChanged(userID uint, online bool) {
	event := PresenceEvent{UserID: userID, IsOnline: online}
	for _, other := range d.registry.OnlineUsers() {
		if other != userID {
			d.Push(other, EventPresence, event)
		}
	}
}

// Push emits event to every live connection of userID and returns how many
// emits succeeded.
func (d *Dispatcher) Push(userID uint, event string, payload interface{}) int {
	delivered := 0
	for _, conn := range d.registry.LivesFor(userID) {
		if err := emit(conn, event, payload); err != nil {
			metrics.DeliveryFailures.WithLabelValues(event).Inc()
			d.log.Warn().Err(err).
				Str("event", event).
				Str("conn", conn.ID()).
				Uint("user_id", userID).
				Msg("Dropped realtime event")
			continue
		}
		delivered++
		metrics.EventsDelivered.WithLabelValues(event).Inc()
	}
	return delivered
}

// emit shields the dispatcher from transports that panic on a closed socket
func emit(conn Conn, event string, payload interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("emit panicked: %v", r)
		}
	}()
	return conn.Emit(event, payload)
}
