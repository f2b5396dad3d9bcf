package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/handlers"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
)

func RegisterUploadRoutes(r gin.IRouter, h *handlers.UploadHandler) {
	upload := r.Group("/upload")
	{
		upload.POST("/chat-attachment", middleware.ChatRateLimit(), h.UploadChatAttachment)
	}
}
