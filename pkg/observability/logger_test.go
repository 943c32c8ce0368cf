package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return NewLogger(LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatJSON,
		Output:         buf,
		ServiceName:    ServiceName,
		ServiceVersion: "1.4.0",
	})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger(t *testing.T) {
	t.Run("text output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})

		logger.Info("task created", "id", 12, "quadrant", "Q2")

		out := buf.String()
		assert.Contains(t, out, `msg="task created"`)
		assert.Contains(t, out, "id=12")
		assert.Contains(t, out, "quadrant=Q2")
	})

	t.Run("json output carries service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		jsonLogger(&buf).Info("task created", "id", 12)

		entry := decodeLine(t, &buf)
		assert.Equal(t, "task created", entry["msg"])
		assert.Equal(t, "quadra", entry["service"])
		assert.Equal(t, "1.4.0", entry["version"])
		assert.EqualValues(t, 12, entry["id"])
	})

	t.Run("level filters records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelWarn, Format: LogFormatText, Output: &buf})

		logger.Info("stats served")
		logger.Warn("stats cache read failed")

		assert.NotContains(t, buf.String(), "stats served")
		assert.Contains(t, buf.String(), "stats cache read failed")
	})
}

func TestLogLevel_slogLevel(t *testing.T) {
	tests := []struct {
		input LogLevel
		want  slog.Level
	}{
		{LogLevelDebug, slog.LevelDebug},
		{LogLevelInfo, slog.LevelInfo},
		{LogLevelWarn, slog.LevelWarn},
		{LogLevelError, slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.slogLevel())
		})
	}
}

func TestNewLogger_ContextAttributes(t *testing.T) {
	t.Run("request scope ids", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := NewRequestContext(context.Background(), "req-456", "corr-123")

		jsonLogger(&buf).InfoContext(ctx, "request completed")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "req-456", entry[RequestIDKey])
		assert.Equal(t, "corr-123", entry[CorrelationIDKey])
		assert.NotContains(t, entry, OperationKey)
	})

	t.Run("operation from context", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := WithOperation(context.Background(), "mcp.task.create")

		jsonLogger(&buf).InfoContext(ctx, "task created")

		assert.Equal(t, "mcp.task.create", decodeLine(t, &buf)[OperationKey])
	})

	t.Run("explicit operation wins", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := WithOperation(context.Background(), "mcp.task.create")

		jsonLogger(&buf).InfoContext(ctx, "relayed", OperationKey, "outbox.publish")

		assert.Equal(t, 1, strings.Count(buf.String(), `"operation"`))
		assert.Equal(t, "outbox.publish", decodeLine(t, &buf)[OperationKey])
	})

	t.Run("derived loggers keep the handler", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := WithRequestID(context.Background(), "req-9")

		jsonLogger(&buf).With("component", "api").InfoContext(ctx, "task loaded", "id", 3)

		entry := decodeLine(t, &buf)
		assert.Equal(t, "api", entry["component"])
		assert.Equal(t, "quadra", entry["service"])
		assert.Equal(t, "req-9", entry[RequestIDKey])
	})
}

func TestConfigForEnvironment(t *testing.T) {
	prod := ConfigForEnvironment("production")
	assert.Equal(t, LogFormatJSON, prod.Format)
	assert.True(t, prod.AddSource)
	assert.Equal(t, ServiceName, prod.ServiceName)

	dev := ConfigForEnvironment("development")
	assert.Equal(t, LogFormatText, dev.Format)
	assert.Equal(t, LogLevelInfo, dev.Level)
	assert.False(t, dev.AddSource)

	assert.Equal(t, LogFormatText, ConfigForEnvironment("").Format)
}

func TestLoggerFromEnv(t *testing.T) {
	t.Setenv("QUADRA_ENV", "production")
	t.Setenv("QUADRA_LOG_LEVEL", "debug")

	logger := LoggerFromEnv()

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogOperation(logger, "outbox.relay", "batch_size", 100).Info("batch relayed")

	out := buf.String()
	assert.Contains(t, out, "operation=outbox.relay")
	assert.Contains(t, out, "batch_size=100")
}

func TestLogDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogDuration(logger, "outbox.stop", time.Now().Add(-100*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "operation completed")
	assert.Contains(t, out, "operation=outbox.stop")
	assert.Contains(t, out, "duration_ms=")
}
