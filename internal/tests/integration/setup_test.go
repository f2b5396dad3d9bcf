package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/config"
	"github.com/pushp314/chatbridge-backend/internal/database"
	"github.com/pushp314/chatbridge-backend/internal/handlers"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
	"github.com/pushp314/chatbridge-backend/internal/migrations"
	"github.com/pushp314/chatbridge-backend/internal/realtime"
	"github.com/pushp314/chatbridge-backend/internal/routes"
	"github.com/pushp314/chatbridge-backend/internal/services"
	"github.com/pushp314/chatbridge-backend/internal/storage"
	"github.com/pushp314/chatbridge-backend/internal/store"
	"github.com/pushp314/chatbridge-backend/internal/testutil"
	"github.com/pushp314/chatbridge-backend/internal/whatsapp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testVerifyToken = "verify-me"
	testMediaBase   = "http://media.test"
)

// setupTestDB uses Postgres when TEST_DATABASE_URL is set and an in-memory
// SQLite database otherwise.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTSecret: "test_secret_key_12345",
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return testutil.NewDB(t)
	}

	db, err := database.Open(postgres.Open(dsn), logger.Silent)
	require.NoError(t, err, "connect to test postgres")
	testutil.Quiet()
	require.NoError(t, migrations.Migrate(db))
	require.NoError(t, db.Exec("TRUNCATE TABLE messages, users RESTART IDENTITY CASCADE").Error)
	return db
}

type testApp struct {
	db     *gorm.DB
	server *httptest.Server
}

// setupApp wires the whole application the way cmd/server does
func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	log := zerolog.Nop()

	users := store.NewUserStore(db)
	messages := store.NewMessageStore(db)
	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry, log)
	messageService := services.NewMessageService(messages, users, dispatcher, log)
	conversationService := services.NewConversationService(messages, users, log)

	media := storage.NewLocalStore(t.TempDir(), testMediaBase)
	adapter := whatsapp.NewAdapter(users, messageService, nil, whatsapp.Options{VerifyToken: testVerifyToken}, log)
	auth := middleware.NewAuthenticator(users, nil)

	r := routes.NewRouter(routes.Handlers{
		Auth:          handlers.NewAuthHandler(users, nil),
		Users:         handlers.NewUserHandler(users, registry),
		Chat:          handlers.NewChatHandler(conversationService, messageService, media, 1<<20, testMediaBase),
		Upload:        handlers.NewUploadHandler(media, 1<<20),
		Admin:         handlers.NewAdminHandler(registry),
		Webhook:       handlers.NewWebhookHandler(adapter),
		Health:        handlers.NewHealthHandler(db, nil),
		Authenticator: auth,
		WebSocket:     realtime.NewWebSocketServer(registry, dispatcher, auth.UserID, log),
		FrontendURL:   "http://localhost:5173",
		UploadDir:     media.Dir(),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testApp{db: db, server: srv}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// register creates an agent and returns its token and id
func (a *testApp) register(t *testing.T, name, email string) (string, uint) {
	t.Helper()
	code, resp := a.do(t, "POST", "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": "Secret123",
	}, "")
	require.Equal(t, http.StatusCreated, code, resp)
	user := resp["user"].(map[string]interface{})
	return resp["token"].(string), uint(user["id"].(float64))
}
