package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValidationError represents an error in user supplied data.
type ValidationError struct {
	Message string
}

// Error returns error message.
func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ParseDuration parses duration in one of forms:
// "H:MM:SS", "M:SS" or amount of seconds.
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, validationErrorf("empty duration")
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, validationErrorf("invalid duration %q", value)
	}
	var seconds int64
	for _, part := range parts {
		field, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || field < 0 {
			return 0, validationErrorf("invalid duration %q", value)
		}
		seconds = seconds*60 + field
	}
	return time.Duration(seconds) * time.Second, nil
}

// FormatDuration formats amount of seconds as "MM:SS" or
// "HH:MM:SS".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 3600 {
		return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
	}
	return fmt.Sprintf(
		"%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60,
	)
}
