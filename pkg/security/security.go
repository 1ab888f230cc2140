// Package security provides validation, sanitization, and limits for the workers package.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdziat/simple-task-workers/pkg/core"
)

// Security limits and configuration
const (
	// MaxKeyLength is the maximum length for worker and queue keys
	MaxKeyLength = 255

	// MaxAttempts is the hard limit for retry strategy attempts
	MaxAttempts = 100

	// MaxWorkers is the hard limit for pool worker count
	MaxWorkers = 1000

	// MaxCapacity is the hard limit for async channel capacity
	MaxCapacity = 1 << 20

	// MaxErrorMessageLength is the maximum length for reported error messages
	MaxErrorMessageLength = 4096
)

// validKey matches alphanumeric, hyphens, underscores, and dots
var validKey = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-\.]*$`)

// ValidateKey validates a worker or queue key
func ValidateKey(key string) error {
	if key == "" {
		return core.ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return core.ErrKeyTooLong
	}
	if !validKey.MatchString(key) {
		return core.ErrInvalidKey
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages before they
// enter the event stream
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	// Truncate if too long
	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampAttempts ensures a retry attempt count is within limits
func ClampAttempts(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxAttempts {
		return MaxAttempts
	}
	return n
}

// ClampWorkerCount ensures a pool size is within limits
func ClampWorkerCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// ClampCapacity ensures an async channel capacity is within limits
func ClampCapacity(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxCapacity {
		return MaxCapacity
	}
	return n
}
