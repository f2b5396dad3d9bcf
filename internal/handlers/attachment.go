package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/samber/lo"
)

// Allowed attachment types. Sniffed content must match one of them.
var allowedMimeTypes = []string{
	// images
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	// audio
	"audio/mpeg",
	"audio/wav",
	"audio/ogg",
	"audio/webm",
	"audio/aac",
	"audio/mp4",
	"audio/3gpp",
	// video
	"video/mp4",
	"video/webm",
	"video/3gpp",
	// documents
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
	"text/csv",
}

// multipart field names accepted for the attached file
var attachmentFields = []string{"file", "archivo"}

const maxMediaURLLength = 2048

var (
	errNoAttachment   = errors.New("no file attached")
	errFileTooLarge   = errors.New("file is too large")
	errTypeNotAllowed = errors.New("file type not allowed")
)

type attachment struct {
	data         []byte
	originalName string
	mime         *mimetype.MIME
	kind         models.MessageType
}

func (a *attachment) ext() string {
	if ext := strings.ToLower(filepath.Ext(a.originalName)); ext != "" {
		return ext
	}
	return a.mime.Extension()
}

// readAttachment loads the uploaded file and classifies it by sniffed content
func readAttachment(c *gin.Context, maxBytes int64) (*attachment, error) {
	var (
		file   multipart.File
		header *multipart.FileHeader
		err    error
	)
	for _, field := range attachmentFields {
		file, header, err = c.Request.FormFile(field)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, errNoAttachment
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, errFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, errFileTooLarge
	}

	detected := mimetype.Detect(data)
	if !lo.SomeBy(allowedMimeTypes, func(m string) bool { return detected.Is(m) }) {
		return nil, fmt.Errorf("%w: %s", errTypeNotAllowed, detected.String())
	}

	return &attachment{
		data:         data,
		originalName: filepath.Base(header.Filename),
		mime:         detected,
		kind:         kindForMime(detected, header.Header.Get("Content-Type")),
	}, nil
}

// kindForMime maps a mime family to a message type. WebM is a container for
// both, so the declared type decides between audio and video.
func kindForMime(detected *mimetype.MIME, declared string) models.MessageType {
	name := detected.String()
	switch {
	case strings.HasPrefix(name, "image/"):
		return models.MessageImage
	case strings.HasPrefix(name, "audio/"):
		return models.MessageAudio
	case strings.HasPrefix(name, "video/"):
		if strings.HasPrefix(declared, "audio/") {
			return models.MessageAudio
		}
		return models.MessageVideo
	}
	return models.MessageDocument
}

func (a *attachment) reader() io.Reader {
	return bytes.NewReader(a.data)
}

// ValidateMediaURL accepts only media this server stored: paths under
// /uploads/ or absolute URLs below one of the allowed bases.
func ValidateMediaURL(mediaURL string, allowedBases []string) error {
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return errors.New("media URL cannot be empty")
	}
	if len(mediaURL) > maxMediaURLLength {
		return errors.New("media URL too long (max 2048 characters)")
	}

	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return errors.New("invalid media URL format")
	}

	lower := strings.ToLower(mediaURL)
	if strings.Contains(lower, "<script") || strings.Contains(lower, "javascript:") || strings.Contains(parsed.Path, "..") {
		return errors.New("unsafe media URL detected")
	}

	if parsed.Scheme == "" && parsed.Host == "" {
		if strings.HasPrefix(parsed.Path, "/uploads/") {
			return nil
		}
		return errors.New("media path must be under /uploads/")
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.New("only HTTP(S) media URLs are allowed")
	}
	for _, base := range allowedBases {
		if base != "" && strings.HasPrefix(mediaURL, strings.TrimRight(base, "/")+"/") {
			return nil
		}
	}
	return errors.New("media URL is not hosted by this server")
}
