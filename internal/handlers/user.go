package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/realtime"
	"github.com/pushp314/chatbridge-backend/internal/store"
	"github.com/pushp314/chatbridge-backend/pkg/logger"
	"github.com/samber/lo"
)

type UserListItem struct {
	models.UserProfile
	IsOnline bool `json:"isOnline"`
}

type UserHandler struct {
	users    *store.UserStore
	registry *realtime.Registry
}

func NewUserHandler(users *store.UserStore, registry *realtime.Registry) *UserHandler {
	return &UserHandler{users: users, registry: registry}
}

// ListUsers returns everyone but the caller, for starting a new chat
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListExcept(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	items := lo.Map(users, func(u models.User, _ int) UserListItem {
		return UserListItem{UserProfile: u.Profile(), IsOnline: h.registry.IsOnline(u.ID)}
	})
	c.JSON(http.StatusOK, gin.H{"users": items})
}
