package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/storage"
	"github.com/pushp314/chatbridge-backend/pkg/logger"
)

type UploadHandler struct {
	media     storage.MediaStore
	maxUpload int64
}

func NewUploadHandler(media storage.MediaStore, maxUpload int64) *UploadHandler {
	return &UploadHandler{media: media, maxUpload: maxUpload}
}

// UploadChatAttachment stores a file ahead of sending it; the returned url can
// be used as mediaUrl on POST /api/messages.
func (h *UploadHandler) UploadChatAttachment(c *gin.Context) {
	file, err := readAttachment(c, h.maxUpload)
	switch {
	case err == errNoAttachment:
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid file field found"})
		return
	case err == errFileTooLarge:
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large", "maxBytes": h.maxUpload})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	obj, err := h.media.Put(c.Request.Context(), "chat", file.ext(), file.reader(), int64(len(file.data)), file.mime.String())
	if err != nil {
		logger.Error().Err(err).Msg("Upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":          obj.URL,
		"key":          obj.Key,
		"mimetype":     obj.ContentType,
		"size":         obj.Size,
		"type":         file.kind,
		"originalName": file.originalName,
	})
}
