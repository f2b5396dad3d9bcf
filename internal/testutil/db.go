// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pushp314/chatbridge-backend/internal/database"
	"github.com/pushp314/chatbridge-backend/internal/migrations"
	"github.com/pushp314/chatbridge-backend/internal/models"
	applog "github.com/pushp314/chatbridge-backend/pkg/logger"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
// Migration logs are discarded.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	Quiet()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := database.Open(sqlite.Open(dsn), logger.Silent)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := migrations.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// CreateUser inserts an agent with the given id and name.
func CreateUser(t *testing.T, db *gorm.DB, id uint, name string) models.User {
	t.Helper()
	u := models.User{
		ID:       id,
		Name:     name,
		Contact:  fmt.Sprintf("%s_%d@example.com", strings.ToLower(name), id),
		Password: "x",
		Role:     models.RoleAgent,
		Source:   models.SourceLocal,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %d: %v", id, err)
	}
	return u
}

// CreateMessage inserts a text message at a fixed time. A zero receiver stores NULL.
func CreateMessage(t *testing.T, db *gorm.DB, sender, receiver uint, content string, at time.Time) models.Message {
	t.Helper()
	m := models.Message{
		SenderID:  sender,
		Type:      models.MessageText,
		Content:   &content,
		CreatedAt: at.UTC(),
	}
	if receiver != 0 {
		m.ReceiverID = &receiver
	}
	if err := db.Omit("Sender", "Receiver").Create(&m).Error; err != nil {
		t.Fatalf("create message %q: %v", content, err)
	}
	return m
}

// Quiet discards the global application logger for the rest of the test binary.
func Quiet() {
	applog.Log = zerolog.Nop()
}
