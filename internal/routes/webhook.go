package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/handlers"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
)

func RegisterWebhookRoutes(r gin.IRouter, h *handlers.WebhookHandler) {
	webhook := r.Group("/webhook")
	webhook.Use(middleware.WebhookRateLimit())
	{
		webhook.GET("", h.Verify)
		webhook.POST("", h.Receive)
	}
}
