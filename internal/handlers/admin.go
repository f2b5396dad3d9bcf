package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/realtime"
)

type AdminHandler struct {
	registry *realtime.Registry
}

func NewAdminHandler(registry *realtime.Registry) *AdminHandler {
	return &AdminHandler{registry: registry}
}

// GetPresence reports who is connected right now
func (h *AdminHandler) GetPresence(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"onlineUsers": h.registry.OnlineUsers(),
		"connections": h.registry.ConnectionCount(),
	})
}
