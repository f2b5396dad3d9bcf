package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/handlers"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
)

func RegisterChatRoutes(r gin.IRouter, h *handlers.ChatHandler) {
	messages := r.Group("/messages")
	{
		messages.GET("/conversations", h.GetConversations)
		messages.GET("/:userId", h.GetMessages)
		messages.POST("", middleware.ChatRateLimit(), h.SendMessage)
		messages.DELETE("/:messageId", h.DeleteMessage)
		messages.POST("/read/:senderId", h.MarkAsRead)
	}
}
