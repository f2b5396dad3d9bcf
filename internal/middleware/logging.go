package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/pkg/logger"
)

// LoggingMiddleware logs all incoming requests with timing
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := logger.Log.Info()
		if status >= 400 {
			event = logger.Log.Warn()
		}
		if status >= 500 {
			event = logger.Log.Error()
		}

		// tokens travel in the query string for socket transports
		if c.Query("token") != "" || c.Query("auth_token") != "" {
			rawQuery = "[redacted]"
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", rawQuery).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Uint("user_id", CurrentUserID(c)).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}
