// Package logging builds the structured logger and sanitizes user input before it is logged
package logging

import (
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
)

// MaxValueLength defines the maximum length for user-provided strings in logs
const MaxValueLength = 200

var unprintable = regexp.MustCompile(`[^\p{L}\p{N}\p{P}\p{S}\p{Z}]`)

// New returns a JSON or text slog logger writing to w at the given level
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Sanitize makes a user-controlled string safe to log.
// Long values are truncated and control characters become spaces.
func Sanitize(input string) string {
	if input == "" {
		return ""
	}

	if len(input) > MaxValueLength {
		input = input[:MaxValueLength] + "... (truncated)"
	}

	input = strings.ReplaceAll(input, "\r\n", "\n")
	sanitized := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)

	return unprintable.ReplaceAllString(sanitized, "")
}

// String is a slog attribute holding a sanitized user value
func String(key, value string) slog.Attr {
	return slog.String(key, Sanitize(value))
}
