package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	tests := []struct {
		level string
		msg   string
		attr  string
	}{
		{"DEBUG", "dbg", "a=1"},
		{"INFO", "inf", "b=2"},
		{"WARN", "wrn", "c=3"},
		{"ERROR", "err", "d=4"},
	}
	for _, tt := range tests {
		assert.Contains(t, out, "level="+tt.level)
		assert.Contains(t, out, "msg="+tt.msg)
		assert.Contains(t, out, tt.attr)
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("user", 7).Info(context.Background(), "clocked in", "project", 3)

	out := buf.String()
	assert.Contains(t, out, "user=7")
	assert.Contains(t, out, "project=3")
}

func TestNew(t *testing.T) {
	t.Setenv("TS_DEBUG", "")

	t.Run("should hide info unless verbose", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Options{Writer: &buf})

		log.Info(context.Background(), "quiet")
		log.Warn(context.Background(), "loud")

		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("should write json when asked", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Options{Format: "JSON", Verbose: true, Writer: &buf})

		log.Debug(context.Background(), "hello", "k", "v")

		var line map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "v", line["k"])
	})

	t.Run("should discard everything with Nop", func(t *testing.T) {
		Nop().Error(context.Background(), "nothing")
	})
}
