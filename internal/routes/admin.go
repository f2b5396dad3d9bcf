package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/handlers"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
)

// RegisterAdminRoutes expects r to be behind AuthMiddleware already
func RegisterAdminRoutes(r gin.IRouter, h *handlers.AdminHandler) {
	admin := r.Group("/admin")
	admin.Use(middleware.AdminOnly())
	{
		admin.GET("/presence", h.GetPresence)
	}
}
