package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"github.com/pushp314/chatbridge-backend/internal/whatsapp"
	"github.com/pushp314/chatbridge-backend/pkg/logger"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Env)
	logger.Info().Str("environment", cfg.Env).Msg("Starting ChatBridge Backend...")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Database, migrations and Redis
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	logger.Info().Msg("🔄 Running Database Migrations...")
	if err := migrations.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}
	logger.Info().Msg("✅ Database Migrations Complete")

	redisClient := database.InitRedis(cfg)
	defer redisClient.Close()
	blacklist := database.NewTokenBlacklist(redisClient)

	// 2. Media storage
	media, err := storage.New(context.Background(), cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize media storage")
	}
	uploadDir := ""
	if local, ok := media.(*storage.LocalStore); ok {
		uploadDir = local.Dir()
	}

	// 3. Core services
	users := store.NewUserStore(db)
	messages := store.NewMessageStore(db)

	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry, logger.Component("dispatcher"))

	messageService := services.NewMessageService(messages, users, dispatcher, logger.Component("messages"))
	conversationService := services.NewConversationService(messages, users, logger.Component("conversations"))

	var fetcher whatsapp.MediaFetcher
	if cfg.WhatsAppToken != "" {
		fetcher = whatsapp.NewGraphFetcher(cfg.WhatsAppGraphURL, cfg.WhatsAppToken, cfg.WhatsAppMediaTimeout, media)
	} else {
		logger.Warn().Msg("WHATSAPP_TOKEN not set, inbound media will keep placeholders")
	}
	adapter := whatsapp.NewAdapter(users, messageService, fetcher, whatsapp.Options{
		VerifyToken:  cfg.WhatsAppVerifyToken,
		AppSecret:    cfg.WhatsAppAppSecret,
		MediaTimeout: cfg.WhatsAppMediaTimeout,
	}, logger.Component("whatsapp"))

	authenticator := middleware.NewAuthenticator(users, blacklist)

	// 4. Realtime transports
	socketServer := realtime.NewSocketServer(registry, dispatcher, authenticator.UserID, logger.Component("socketio"))
	go func() {
		if err := socketServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("Socket.IO server stopped")
		}
	}()
	defer socketServer.Close()

	wsServer := realtime.NewWebSocketServer(registry, dispatcher, authenticator.UserID, logger.Component("websocket"))

	// 5. Router
	r := routes.NewRouter(routes.Handlers{
		Auth:          handlers.NewAuthHandler(users, blacklist),
		Users:         handlers.NewUserHandler(users, registry),
		Chat:          handlers.NewChatHandler(conversationService, messageService, media, cfg.MaxUploadBytes(), cfg.PublicMediaURL, cfg.R2PublicURL),
		Upload:        handlers.NewUploadHandler(media, cfg.MaxUploadBytes()),
		Admin:         handlers.NewAdminHandler(registry),
		Webhook:       handlers.NewWebhookHandler(adapter),
		Health:        handlers.NewHealthHandler(db, blacklist),
		Authenticator: authenticator,
		SocketIO:      socketServer,
		WebSocket:     wsServer,
		FrontendURL:   cfg.FrontendURL,
		UploadDir:     uploadDir,
	})

	// 6. Start Server with graceful shutdown
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// long enough for large multipart uploads
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("🛑 Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("✅ Server exited gracefully")
}
