package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"loud", LogLevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoomLogger_ScopedAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	l.WithComponent("chat").WithRoom("Copywriting", "sess-1").With("k", "v").Info("chat.turn.start", "iteration", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "chat.turn.start", entry["msg"])
	assert.Equal(t, "chat", entry["component"])
	assert.Equal(t, "Copywriting", entry["room"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "v", entry["k"])
	assert.EqualValues(t, 2, entry["iteration"])
}

func TestRoomLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Error("model.call.failed", "stage", "agent", "error", errors.New("boom").Error())
	assert.Contains(t, buf.String(), "model.call.failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestScoped(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	Scoped(l, "", "sess-9").Info("server.connection.open")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sess-9", entry["session_id"])
	assert.NotContains(t, entry, "room")

	var noop Logger = NoOpLogger{}
	assert.Equal(t, noop, Scoped(noop, "r", "s"))
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x", "k", 1)
		l.Warn("x")
		l.Error("x")
	})
}
