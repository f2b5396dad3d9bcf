package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/database"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db        *gorm.DB
	blacklist *database.TokenBlacklist
}

func NewHealthHandler(db *gorm.DB, blacklist *database.TokenBlacklist) *HealthHandler {
	return &HealthHandler{db: db, blacklist: blacklist}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "error"
	}
	redisStatus := h.blacklist.Status(ctx)

	status := "ok"
	if dbStatus != "ok" || redisStatus == "error" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"message": "chatbridge backend is running",
		"checks": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
