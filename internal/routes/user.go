package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/handlers"
)

func RegisterUserRoutes(r gin.IRouter, h *handlers.UserHandler) {
	r.GET("/users", h.ListUsers)
}
