package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/database"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/store"
	"github.com/pushp314/chatbridge-backend/pkg/logger"
	"github.com/pushp314/chatbridge-backend/pkg/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- Helper Functions ---

func validatePasswordStrength(password string) error {
	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	if len(password) < 6 || len(password) > 100 || !hasUpper || !hasLower || !hasNumber {
		return fmt.Errorf("password must be 6-100 characters long and contain at least one uppercase letter, one lowercase letter and one number")
	}
	return nil
}

// --- Local Auth ---

type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=100"`
}

type AuthResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

type AuthHandler struct {
	users     *store.UserStore
	blacklist *database.TokenBlacklist
}

func NewAuthHandler(users *store.UserStore, blacklist *database.TokenBlacklist) *AuthHandler {
	return &AuthHandler{users: users, blacklist: blacklist}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input.Name = strings.TrimSpace(utils.StripHTML(input.Name))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if utils.IsBlank(input.Name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	if err := validatePasswordStrength(input.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Name:     input.Name,
		Contact:  input.Email,
		Password: string(hashedPassword),
		Role:     models.RoleAgent,
		Source:   models.SourceLocal,
	}

	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warn().Str("email", input.Email).Msg("Registration failed: unique violation")
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists. Please sign in instead."})
			return
		}
		logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := utils.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info().Uint("user_id", user.ID).Msg("User registered successfully")

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user.Profile()})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := h.users.GetByContact(c.Request.Context(), email)
	if err != nil {
		logger.Warn().Str("email", email).Msg("Login failed: user not found")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// contacts created from WhatsApp carry a random hash and cannot log in
	if user.Source != models.SourceLocal {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		logger.Warn().Str("email", email).Msg("Login failed: invalid password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info().Uint("user_id", user.ID).Msg("User logged in")

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: user.Profile()})
}

// Logout revokes the presented token until it would have expired anyway
func (h *AuthHandler) Logout(c *gin.Context) {
	claimsInterface, exists := c.Get(middleware.ContextClaims)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"message": "Already logged out"})
		return
	}

	claims, ok := claimsInterface.(*utils.Claims)
	if !ok || claims == nil || claims.GetJTI() == "" {
		c.JSON(http.StatusOK, gin.H{"message": "Already logged out"})
		return
	}

	ttl := time.Until(claims.GetExpiresAt())
	if ttl <= 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
		return
	}

	if err := h.blacklist.Revoke(c.Request.Context(), claims.GetJTI(), ttl); err != nil {
		// still a successful logout from the client's point of view
		logger.Error().Err(err).Str("jti", claims.GetJTI()).Msg("Failed to blacklist token")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Profile()})
}
