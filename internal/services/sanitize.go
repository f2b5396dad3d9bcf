package services

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pushp314/chatbridge-backend/pkg/utils"
)

// Message length limits
const (
	MaxMessageLength = 8000
	MaxCaptionLength = 1024
)

var (
	errEmptyContent   = errors.New("message cannot be empty")
	errContentTooLong = errors.New("message exceeds maximum length")
	onEventRegex      = regexp.MustCompile(`(?i)\s+on\w+\s*=`)
)

// SanitizeMessageContent strips markup from user text. A result of "" means the
// text held nothing but markup or whitespace.
func SanitizeMessageContent(content string, maxLen int) (string, error) {
	if utf8.RuneCountInString(content) > maxLen {
		return "", errContentTooLong
	}

	content = utils.StripHTML(content)
	content = onEventRegex.ReplaceAllString(content, " ")
	content = strings.TrimSpace(content)

	if content == "" {
		return "", errEmptyContent
	}
	return content, nil
}

// LimitMessageContent applies the length limit without touching the text.
// Provider messages are stored exactly as the contact sent them.
func LimitMessageContent(content string, maxLen int) (string, error) {
	if utf8.RuneCountInString(content) > maxLen {
		return "", errContentTooLong
	}
	if strings.TrimSpace(content) == "" {
		return "", errEmptyContent
	}
	return content, nil
}
