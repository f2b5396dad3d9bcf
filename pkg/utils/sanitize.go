package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	scriptTagRegex = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
)

// StripHTML removes script blocks and then every remaining tag
func StripHTML(input string) string {
	input = scriptTagRegex.ReplaceAllString(input, "")
	return htmlTagRegex.ReplaceAllString(input, "")
}

// TruncateString cuts s to at most maxLen runes
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// IsBlank reports whether s is empty after trimming whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
