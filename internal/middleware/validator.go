package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

// MaxChatMessageLen caps a single chat message, in runes
const MaxChatMessageLen = 4000

var allowedReportTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
}

var memberIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateSessionID checks that id is a UUID as issued by the session registry
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid session ID format")
	}
	return nil
}

// ValidateMemberID validates family member ID format
func ValidateMemberID(id string) error {
	if !memberIDPattern.MatchString(id) {
		return fmt.Errorf("invalid member ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateReportType checks the sniffed media type of an uploaded report
func ValidateReportType(mediaType string) error {
	if !allowedReportTypes[strings.ToLower(mediaType)] {
		return fmt.Errorf("unsupported file type: %s (allowed: pdf, png, jpeg, webp)", mediaType)
	}
	return nil
}

// ValidateChatMessage enforces the length cap on a sanitized message
func ValidateChatMessage(msg string) error {
	if n := len([]rune(msg)); n > MaxChatMessageLen {
		return fmt.Errorf("message too long: %d characters (max %d)", n, MaxChatMessageLen)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
