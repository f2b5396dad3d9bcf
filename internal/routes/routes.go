package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pushp314/chatbridge-backend/internal/handlers"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
	"github.com/pushp314/chatbridge-backend/internal/realtime"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Auth    *handlers.AuthHandler
	Users   *handlers.UserHandler
	Chat    *handlers.ChatHandler
	Upload  *handlers.UploadHandler
	Admin   *handlers.AdminHandler
	Webhook *handlers.WebhookHandler
	Health  *handlers.HealthHandler

	Authenticator *middleware.Authenticator
	SocketIO      *realtime.SocketServer
	WebSocket     *realtime.WebSocketServer

	FrontendURL string
	UploadDir   string // empty when media is not served from local disk
}

// NewRouter builds the gin engine with every route and global middleware
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(h.FrontendURL))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if h.UploadDir != "" {
		r.Static("/uploads", h.UploadDir)
	}

	RegisterWebhookRoutes(r, h.Webhook)
	RegisterRealtimeRoutes(r, h.SocketIO, h.WebSocket)

	api := r.Group("/api")
	api.Use(middleware.GeneralRateLimit())
	{
		auth := api.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		RegisterAuthRoutes(auth, h.Auth, h.Authenticator)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(h.Authenticator))

		RegisterUserRoutes(protected, h.Users)
		RegisterChatRoutes(protected, h.Chat)
		RegisterUploadRoutes(protected, h.Upload)
		RegisterAdminRoutes(protected, h.Admin)
	}

	return r
}
