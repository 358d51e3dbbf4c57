package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"cgmdose/internal/config"
)

func decodeLines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry), "line %q", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger_JSONToFileAndStdout(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	var stdout bytes.Buffer

	logger, closeFn, err := NewLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "both",
		FilePath: logFile,
	}, &stdout)
	require.NoError(t, err)

	logger.Info("test message", "key", "value")
	require.NoError(t, closeFn())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	for _, data := range [][]byte{content, stdout.Bytes()} {
		entries := decodeLines(t, data)
		require.Len(t, entries, 1)
		assert.Equal(t, "test message", entries[0]["msg"])
		assert.Equal(t, "value", entries[0]["key"])
		assert.Equal(t, "INFO", entries[0]["level"])
	}
}

func TestNewLogger_Console(t *testing.T) {
	var stdout bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "console", Output: "console"}, &stdout)
	require.NoError(t, err)

	logger.Debug("console line", slog.Int("rows", 3))

	out := stdout.String()
	assert.Contains(t, out, "console line")
	assert.Contains(t, out, "rows")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"), "console output is not JSON")
}

func TestNewLogger_ConsoleWithFileKeepsJSONFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	var stdout bytes.Buffer

	logger, closeFn, err := NewLogger(config.LoggingConfig{
		Level: "info", Format: "console", Output: "both", FilePath: logFile,
	}, &stdout)
	require.NoError(t, err)

	logger.With(slog.String("component", "test")).Warn("fan out")
	require.NoError(t, closeFn())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	entries := decodeLines(t, content)
	require.Len(t, entries, 1)
	assert.Equal(t, "test", entries[0]["component"])
	assert.Contains(t, stdout.String(), "fan out")
}

func TestTraceIDInjection(t *testing.T) {
	var stdout bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "console"}, &stdout)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "run-123")
	logger.InfoContext(ctx, "with run id")

	tp := sdktrace.NewTracerProvider()
	spanCtx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(spanCtx, "with span")
	span.End()

	logger.Info("without")

	entries := decodeLines(t, stdout.Bytes())
	require.Len(t, entries, 3)
	assert.Equal(t, "run-123", entries[0]["trace_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[1]["trace_id"])
	assert.NotContains(t, entries[2], "trace_id")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.level))
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctx = EnsureTraceID(ctx)
	id := GetTraceID(ctx)
	assert.Len(t, id, 36)
	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)), "existing id is kept")
	assert.NotEqual(t, GenerateTraceID(), GenerateTraceID())
}
