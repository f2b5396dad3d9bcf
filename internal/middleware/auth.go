package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/database"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/pkg/utils"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "userId"
	ContextClaims = "claims"
	ContextUser   = "user"
)

var (
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrUserInactive = errors.New("user not found or inactive")
)

type UserFinder interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator turns an access token into a live user. It backs both the
// HTTP middleware and the realtime transports.
type Authenticator struct {
	users     UserFinder
	blacklist *database.TokenBlacklist
}

func NewAuthenticator(users UserFinder, blacklist *database.TokenBlacklist) *Authenticator {
	return &Authenticator{users: users, blacklist: blacklist}
}

func (a *Authenticator) Authenticate(ctx context.Context, token string) (*utils.Claims, *models.User, error) {
	claims, err := utils.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}
	if a.blacklist.IsRevoked(ctx, claims.GetJTI()) {
		return nil, nil, ErrTokenRevoked
	}
	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, ErrUserInactive
	}
	return claims, user, nil
}

// UserID has the shape of realtime.Authenticator
func (a *Authenticator) UserID(ctx context.Context, token string) (uint, error) {
	_, user, err := a.Authenticate(ctx, token)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func AuthMiddleware(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, user, err := auth.Authenticate(c.Request.Context(), parts[1])
		switch {
		case errors.Is(err, ErrTokenRevoked):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			c.Abort()
			return
		case errors.Is(err, ErrUserInactive):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
			c.Abort()
			return
		case err != nil:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextClaims, claims)
		c.Set(ContextUser, user)

		c.Next()
	}
}

// CurrentUserID returns the id AuthMiddleware stored, or 0
func CurrentUserID(c *gin.Context) uint {
	id, _ := c.Get(ContextUserID)
	uid, _ := id.(uint)
	return uid
}

// CurrentUser returns the user AuthMiddleware loaded, or nil
func CurrentUser(c *gin.Context) *models.User {
	u, _ := c.Get(ContextUser)
	user, _ := u.(*models.User)
	return user
}
