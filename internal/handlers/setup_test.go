package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/config"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/realtime"
	"github.com/pushp314/chatbridge-backend/internal/services"
	"github.com/pushp314/chatbridge-backend/internal/storage"
	"github.com/pushp314/chatbridge-backend/internal/store"
	"github.com/pushp314/chatbridge-backend/internal/testutil"
	"github.com/pushp314/chatbridge-backend/internal/whatsapp"
	"github.com/pushp314/chatbridge-backend/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testMediaBase   = "http://media.test"
	testVerifyToken = "verify-me"
	testAppSecret   = "app-secret"
)

type testEnv struct {
	db        *gorm.DB
	users     *store.UserStore
	registry  *realtime.Registry
	uploadDir string
	router    *gin.Engine
}

// newTestEnv wires the handlers the way main does, on an in-memory database
// and a temp upload dir, without Redis.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "test_secret_key_12345"}

	db := testutil.NewDB(t)
	users := store.NewUserStore(db)
	messages := store.NewMessageStore(db)
	registry := realtime.NewRegistry()
	log := zerolog.Nop()
	dispatcher := realtime.NewDispatcher(registry, log)

	messageService := services.NewMessageService(messages, users, dispatcher, log)
	conversationService := services.NewConversationService(messages, users, log)

	dir := t.TempDir()
	media := storage.NewLocalStore(dir, testMediaBase)
	adapter := whatsapp.NewAdapter(users, messageService, nil, whatsapp.Options{
		VerifyToken: testVerifyToken,
		AppSecret:   testAppSecret,
	}, log)
	auth := middleware.NewAuthenticator(users, nil)

	authHandler := NewAuthHandler(users, nil)
	chat := NewChatHandler(conversationService, messageService, media, 1<<20, testMediaBase)
	upload := NewUploadHandler(media, 1<<20)
	webhook := NewWebhookHandler(adapter)

	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware())
	r.GET("/health", NewHealthHandler(db, nil).Health)
	r.GET("/webhook", webhook.Verify)
	r.POST("/webhook", webhook.Receive)

	api := r.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(auth))
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)
	protected.GET("/users", NewUserHandler(users, registry).ListUsers)
	protected.GET("/messages/conversations", chat.GetConversations)
	protected.GET("/messages/:userId", chat.GetMessages)
	protected.POST("/messages", chat.SendMessage)
	protected.DELETE("/messages/:messageId", chat.DeleteMessage)
	protected.POST("/messages/read/:senderId", chat.MarkAsRead)
	protected.POST("/upload/chat-attachment", upload.UploadChatAttachment)
	protected.GET("/admin/presence", middleware.AdminOnly(), NewAdminHandler(registry).GetPresence)

	return &testEnv{db: db, users: users, registry: registry, uploadDir: dir, router: r}
}

func tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(u.ID, string(u.Role))
	require.NoError(t, err)
	return token
}

func performRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return serve(r, req, token)
}

func serve(r http.Handler, req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type recordingConn struct {
	id     string
	mu     sync.Mutex
	events []string
}

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Emit(event string, _ interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *recordingConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}
