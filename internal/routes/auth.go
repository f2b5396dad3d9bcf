package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/handlers"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
)

func RegisterAuthRoutes(r gin.IRouter, h *handlers.AuthHandler, auth *middleware.Authenticator) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	// logout needs the claims to revoke the token
	r.POST("/logout", middleware.AuthMiddleware(auth), h.Logout)
	r.GET("/me", middleware.AuthMiddleware(auth), h.Me)
}
