package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/whatsapp"
	"github.com/pushp314/chatbridge-backend/pkg/logger"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	adapter *whatsapp.Adapter
}

func NewWebhookHandler(adapter *whatsapp.Adapter) *WebhookHandler {
	return &WebhookHandler{adapter: adapter}
}

// Verify answers the provider's subscription handshake
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.adapter.Verify(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		logger.Warn().Str("mode", c.Query("hub.mode")).Msg("Webhook verification rejected")
		c.Status(http.StatusForbidden)
		return
	}
	logger.Info().Msg("Webhook verified")
	c.String(http.StatusOK, challenge)
}

// Receive stores a delivery. Once the body is decoded the provider always gets
// a 200 so it does not retry messages that were processed or skipped.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	if err := h.adapter.VerifySignature(body, c.GetHeader("X-Hub-Signature-256")); err != nil {
		logger.Warn().Str("ip", c.ClientIP()).Msg("Webhook signature rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var payload whatsapp.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	result := h.adapter.Process(c.Request.Context(), &payload)
	if result.Received > 0 {
		logger.Info().
			Int("received", result.Received).
			Int("created", result.Created).
			Int("skipped", result.Skipped).
			Int("failed", result.Failed).
			Msg("Webhook processed")
	}

	c.JSON(http.StatusOK, result)
}
