package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/middleware"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/services"
	"github.com/pushp314/chatbridge-backend/internal/storage"
	apperrors "github.com/pushp314/chatbridge-backend/pkg/errors"
	"github.com/pushp314/chatbridge-backend/pkg/logger"
)

// SendMessageInput is the JSON body of POST /api/messages. Multipart requests
// carry the same fields as form values plus the file.
type SendMessageInput struct {
	ReceiverID uint    `json:"receiverId" form:"receiverId" binding:"required,gt=0"`
	Type       string  `json:"type" form:"type"`
	Content    *string `json:"content" form:"content"`
	MediaURL   *string `json:"mediaUrl" form:"mediaUrl"`
}

type ChatHandler struct {
	conversations *services.ConversationService
	messages      *services.MessageService
	media         storage.MediaStore
	maxUpload     int64
	mediaBases    []string
}

func NewChatHandler(conversations *services.ConversationService, messages *services.MessageService, media storage.MediaStore, maxUpload int64, mediaBases ...string) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		messages:      messages,
		media:         media,
		maxUpload:     maxUpload,
		mediaBases:    mediaBases,
	}
}

// GetConversations returns the caller's correspondents, most recent first
func (h *ChatHandler) GetConversations(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	conversations, err := h.conversations.ListConversations(c.Request.Context(), userID)
	if err != nil {
		logger.Error().Err(err).Uint("user_id", userID).Msg("Failed to list conversations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages returns the thread between the caller and :userId
func (h *ChatHandler) GetMessages(c *gin.Context) {
	otherID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	messages, err := h.messages.Thread(c.Request.Context(), middleware.CurrentUserID(c), otherID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var input SendMessageInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := services.CreateMessageRequest{
		SenderID:   middleware.CurrentUserID(c),
		ReceiverID: &input.ReceiverID,
		Type:       input.Type,
		Content:    input.Content,
		Origin:     services.OriginDirect,
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if !h.attach(c, &req) {
			return
		}
	} else if input.MediaURL != nil && strings.TrimSpace(*input.MediaURL) != "" {
		if err := ValidateMediaURL(*input.MediaURL, h.mediaBases); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.MediaURL = input.MediaURL
	}

	msg, err := h.messages.Create(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// attach stores the uploaded file and points req at it. It writes the error
// response itself and reports whether the request may continue.
func (h *ChatHandler) attach(c *gin.Context, req *services.CreateMessageRequest) bool {
	file, err := readAttachment(c, h.maxUpload)
	switch {
	case err == errNoAttachment:
		return true
	case err == errFileTooLarge:
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large", "maxBytes": h.maxUpload})
		return false
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}

	obj, err := h.media.Put(c.Request.Context(), "chat", file.ext(), file.reader(), int64(len(file.data)), file.mime.String())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to store attachment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return false
	}

	now := time.Now().UTC()
	req.Type = string(file.kind)
	req.MediaURL = &obj.URL
	req.Metadata = &models.MediaMetadata{
		OriginalName: file.originalName,
		URL:          obj.URL,
		MimeType:     file.mime.String(),
		Size:         obj.Size,
		DownloadedAt: &now,
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		req.Content = nil
	}
	return true
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := parseIDParam(c, "messageId")
	if !ok {
		return
	}

	if err := h.messages.Delete(c.Request.Context(), middleware.CurrentUserID(c), messageID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

// MarkAsRead flags every message from :senderId to the caller as read
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	senderID, ok := parseIDParam(c, "senderId")
	if !ok {
		return
	}

	count, err := h.messages.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), senderID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": count})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.Error(apperrors.BadRequest("invalid " + name))
		return 0, false
	}
	return uint(id), true
}
