package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pushp314/chatbridge-backend/internal/config"
	"github.com/pushp314/chatbridge-backend/internal/database"
	"github.com/pushp314/chatbridge-backend/internal/migrations"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	name    string
	contact string
	role    models.Role
	source  models.UserSource
}

var seedUsers = []seedUser{
	{name: "Admin", contact: "admin@chatbridge.local", role: models.RoleAdmin, source: models.SourceLocal},
	{name: "Alice Agent", contact: "alice@chatbridge.local", role: models.RoleAgent, source: models.SourceLocal},
	{name: "Bob Agent", contact: "bob@chatbridge.local", role: models.RoleAgent, source: models.SourceLocal},
	{name: "Ana", contact: "51900000001", role: models.RoleContact, source: models.SourceWhatsApp},
}

type seedMessage struct {
	from, to string // contacts; empty to means inbound with no receiver
	content  string
	read     bool
}

var seedMessages = []seedMessage{
	{from: "alice@chatbridge.local", to: "bob@chatbridge.local", content: "Morning Bob, can you take the WhatsApp queue today?", read: true},
	{from: "bob@chatbridge.local", to: "alice@chatbridge.local", content: "Sure, on it."},
	{from: "51900000001", content: "Hola, necesito ayuda con mi pedido"},
	{from: "admin@chatbridge.local", to: "alice@chatbridge.local", content: "Welcome to ChatBridge!"},
}

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}

	log.Println("🔄 Running migrations (just in case)...")
	if err := migrations.Migrate(db); err != nil {
		log.Fatalf("❌ Failed to migrate: %v", err)
	}

	ctx := context.Background()
	users := store.NewUserStore(db)
	messages := store.NewMessageStore(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	log.Println("👤 Seeding users...")
	ids := make(map[string]uint, len(seedUsers))
	for _, su := range seedUsers {
		existing, err := users.GetByContact(ctx, su.contact)
		if err == nil {
			ids[su.contact] = existing.ID
			log.Printf("   - %s already exists (id %d)", su.contact, existing.ID)
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Fatalf("❌ Failed to look up %s: %v", su.contact, err)
		}

		user := &models.User{
			Name:     su.name,
			Contact:  su.contact,
			Password: string(hash),
			Role:     su.role,
			Source:   su.source,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatalf("❌ Failed to create %s: %v", su.contact, err)
		}
		ids[su.contact] = user.ID
		log.Printf("   + %s (id %d)", su.contact, user.ID)
	}

	log.Println("💬 Seeding messages...")
	start := time.Now().Add(-time.Hour)
	for i, sm := range seedMessages {
		content := sm.content
		msg := &models.Message{
			SenderID:  ids[sm.from],
			Type:      models.MessageText,
			Content:   &content,
			IsRead:    sm.read,
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		}
		if sm.to != "" {
			receiver := ids[sm.to]
			msg.ReceiverID = &receiver
		}
		if err := messages.Create(ctx, msg); err != nil {
			log.Fatalf("❌ Failed to create message: %v", err)
		}
	}

	log.Printf("✅ Seeded %d users and %d messages", len(seedUsers), len(seedMessages))
}
