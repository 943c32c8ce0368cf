package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_Stop(t *testing.T) {
	metrics := NewInMemoryMetrics()

	elapsed := StartTimer(context.Background(), "task.create").WithMetrics(metrics).Stop(nil)

	tag := T(OperationKey, "task.create")
	snap := metrics.Snapshot()
	assert.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))
	assert.Equal(t, int64(1), snap.Counter(MetricOperationTotal, tag))
	assert.Equal(t, int64(1), snap.Summary(MetricOperationDuration, tag).Count)
	assert.Zero(t, snap.Counter(MetricOperationErrors, tag))
}

func TestTimer_StopWithErrorLogsThroughContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})
	metrics := NewInMemoryMetrics()
	ctx := WithCorrelationID(context.Background(), "corr-789")

	StartTimer(ctx, "task.delete").
		WithLogger(logger).
		WithMetrics(metrics).
		Stop(errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "correlation_id=corr-789")
	assert.Contains(t, out, "error=boom")
	assert.Equal(t, int64(1), metrics.Snapshot().Counter(MetricOperationErrors, T(OperationKey, "task.delete")))
}

func TestTimer_SuccessLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})

	StartTimer(context.Background(), "task.get").WithLogger(logger).Stop(nil)

	assert.Empty(t, buf.String())
}

func TestTimeOperationResult(t *testing.T) {
	metrics := NewInMemoryMetrics()
	logger := slog.New(slog.DiscardHandler)
	tag := T(OperationKey, "matrix.stats")

	got, err := TimeOperationResult(context.Background(), logger, metrics, "matrix.stats", func(ctx context.Context) (int, error) {
		assert.Equal(t, "matrix.stats", OperationFromContext(ctx))
		return 4, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	_, err = TimeOperationResult(context.Background(), logger, metrics, "matrix.stats", func(context.Context) (int, error) {
		return 0, errors.New("store down")
	})
	assert.EqualError(t, err, "store down")

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Counter(MetricOperationTotal, tag))
	assert.Equal(t, int64(1), snap.Counter(MetricOperationErrors, tag))
}

func TestTimeOperationResult_TagsInnerLogLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})

	_, _ = TimeOperationResult(context.Background(), logger, NoopMetrics{}, "mcp.task.complete", func(ctx context.Context) (struct{}, error) {
		logger.InfoContext(ctx, "task completed", "id", 7)
		return struct{}{}, nil
	})

	assert.Contains(t, buf.String(), "operation=mcp.task.complete")
}
