package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pushp314/chatbridge-backend/internal/metrics"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/services"
	"github.com/pushp314/chatbridge-backend/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultContactName  = "WhatsApp user"
	defaultMediaTimeout = 15 * time.Second
)

var (
	ErrUnsupportedType = errors.New("unsupported message type")
	ErrIncomplete      = errors.New("incomplete message")
)

// UserRepository is the part of the user directory the adapter writes to
type UserRepository interface {
	GetByContact(ctx context.Context, contact string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateName(ctx context.Context, id uint, name string) error
}

// MessageCreator stores a normalized message
type MessageCreator interface {
	Create(ctx context.Context, req services.CreateMessageRequest) (*models.Message, error)
}

// MediaFetcher downloads a provider attachment into media storage
type MediaFetcher interface {
	Fetch(ctx context.Context, kind models.MessageType, media *MediaBody) (*FetchedMedia, error)
}

type FetchedMedia struct {
	URL      string
	Metadata *models.MediaMetadata
}

type Options struct {
	VerifyToken  string
	AppSecret    string
	MediaTimeout time.Duration
}

// BatchResult counts what happened to each message of a webhook delivery
type BatchResult struct {
	Received int `json:"received"`
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

type Adapter struct {
	users     UserRepository
	messages  MessageCreator
	media     MediaFetcher
	opts      Options
	validator *validator.Validate
	log       zerolog.Logger
}

func NewAdapter(users UserRepository, messages MessageCreator, media MediaFetcher, opts Options, log zerolog.Logger) *Adapter {
	if opts.MediaTimeout <= 0 {
		opts.MediaTimeout = defaultMediaTimeout
	}
	return &Adapter{
		users:     users,
		messages:  messages,
		media:     media,
		opts:      opts,
		validator: validator.New(),
		log:       log.With().Str("component", "whatsapp").Logger(),
	}
}

// Process stores every message of a webhook delivery. Messages are handled
// independently; one failing never stops the rest.
func (a *Adapter) Process(ctx context.Context, payload *Payload) BatchResult {
	var result BatchResult
	if payload == nil || payload.Object != ObjectBusinessAccount {
		return result
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				result.Received++
				contact := change.Value.contactFor(msg)

				err := a.handle(ctx, contact, msg)
				switch {
				case err == nil:
					result.Created++
					metrics.WebhookMessages.WithLabelValues("created").Inc()
				case errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrIncomplete):
					result.Skipped++
					metrics.WebhookMessages.WithLabelValues("skipped").Inc()
					a.log.Warn().Err(err).Str("wa_message_id", msg.ID).Str("type", msg.Type).Msg("Skipped inbound message")
				default:
					result.Failed++
					metrics.WebhookMessages.WithLabelValues("failed").Inc()
					a.log.Error().Err(err).Str("wa_message_id", msg.ID).Msg("Failed to store inbound message")
				}
			}
		}
	}
	return result
}

func (a *Adapter) handle(ctx context.Context, contact Contact, msg InboundMessage) error {
	req, err := a.Normalize(ctx, contact, msg)
	if err != nil {
		return err
	}
	saved, err := a.messages.Create(ctx, *req)
	if err != nil {
		return err
	}
	a.log.Info().Uint("message_id", saved.ID).Uint("user_id", saved.SenderID).Str("type", string(saved.Type)).Msg("Inbound message stored")
	return nil
}

// Normalize resolves the sending user and builds the request that stores msg.
// The returned request never has a receiver.
func (a *Adapter) Normalize(ctx context.Context, contact Contact, msg InboundMessage) (*services.CreateMessageRequest, error) {
	if err := a.validator.Struct(msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}

	waID := strings.TrimSpace(contact.WaID)
	if waID == "" {
		waID = strings.TrimSpace(msg.From)
	}
	if waID == "" {
		return nil, fmt.Errorf("%w: no sender id", ErrIncomplete)
	}

	kind, err := models.ParseMessageType(msg.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, msg.Type)
	}

	user, err := a.resolveUser(ctx, waID, strings.TrimSpace(contact.Profile.Name))
	if err != nil {
		return nil, err
	}

	content := contentFor(kind, msg)
	req := &services.CreateMessageRequest{
		SenderID: user.ID,
		Type:     string(kind),
		Content:  &content,
		Origin:   services.OriginInbound,
	}

	if media := msg.Media(); media != nil && media.ID != "" && a.media != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, a.opts.MediaTimeout)
		fetched, err := a.media.Fetch(fetchCtx, kind, media)
		cancel()
		if err != nil {
			a.log.Warn().Err(err).Str("media_id", media.ID).Str("type", string(kind)).Msg("Media download failed, keeping placeholder")
		} else {
			req.MediaURL = &fetched.URL
			req.Metadata = fetched.Metadata
		}
	}

	return req, nil
}

// resolveUser finds the contact's user, creating it on first contact and
// renaming it when the provider reports a different name.
func (a *Adapter) resolveUser(ctx context.Context, waID, name string) (*models.User, error) {
	user, err := a.users.GetByContact(ctx, waID)
	if err == nil {
		if name != "" && user.Name != name {
			if err := a.users.UpdateName(ctx, user.ID, name); err != nil {
				return nil, fmt.Errorf("rename contact %s: %w", waID, err)
			}
			a.log.Info().Uint("user_id", user.ID).Str("name", name).Msg("Contact name updated")
			user.Name = name
		}
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("look up contact %s: %w", waID, err)
	}

	if name == "" {
		name = DefaultContactName
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}

	user = &models.User{
		Name:     name,
		Contact:  waID,
		Password: string(hash),
		Role:     models.RoleContact,
		Source:   models.SourceWhatsApp,
	}
	if err := a.users.Create(ctx, user); err != nil {
		// a concurrent delivery may have created it first
		if existing, getErr := a.users.GetByContact(ctx, waID); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create contact %s: %w", waID, err)
	}
	a.log.Info().Uint("user_id", user.ID).Str("contact", waID).Msg("Contact created")
	return user, nil
}

func contentFor(kind models.MessageType, msg InboundMessage) string {
	media := msg.Media()
	switch kind {
	case models.MessageText:
		if msg.Text != nil {
			return msg.Text.Body
		}
		return ""
	case models.MessageImage:
		if media != nil && strings.TrimSpace(media.Caption) != "" {
			return media.Caption
		}
		return "Image received"
	case models.MessageVideo:
		if media != nil && strings.TrimSpace(media.Caption) != "" {
			return media.Caption
		}
		return "Video received"
	case models.MessageAudio:
		return "Audio received"
	case models.MessageDocument:
		if media != nil && strings.TrimSpace(media.Filename) != "" {
			return media.Filename
		}
		return "Document received"
	}
	return ""
}
