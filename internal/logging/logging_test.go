package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Room name",
			input:    "CB06.06.112 Group Study Room",
			expected: "CB06.06.112 Group Study Room",
		},
		{
			name:     "Format specifiers are kept",
			input:    "user %s",
			expected: "user %s",
		},
		{
			name:     "Newlines",
			input:    "First line\nSecond line\r\nThird line",
			expected: "First line Second line Third line",
		},
		{
			name:     "Long string truncation",
			input:    strings.Repeat("A", 300),
			expected: strings.Repeat("A", MaxValueLength) + "... (truncated)",
		},
		{
			name:     "Control characters",
			input:    "Booking\twith\x00control\x1Fcharacters",
			expected: "Booking with control characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "info", "json")
		logger.Info("booking committed", String("user", "ann\nsmith"))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "booking committed", entry["msg"])
		assert.Equal(t, "ann smith", entry["user"])
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "warn", "text")
		logger.Info("hidden")
		assert.Empty(t, buf.String())
		logger.Warn("shown")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
