package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one operation. Stop logs the outcome and records the
// quadra.operation.* series tagged with the operation name.
type Timer struct {
	ctx       context.Context
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
}

// StartTimer starts timing operation. Log lines are written through ctx.
func StartTimer(ctx context.Context, operation string) *Timer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Timer{ctx: ctx, operation: operation, start: time.Now()}
}

// WithLogger logs the outcome on Stop. Successes log at debug.
func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

// WithMetrics records the outcome on Stop.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// Stop ends the measurement. A non-nil err counts as a failure.
func (t *Timer) Stop(err error) time.Duration {
	elapsed := time.Since(t.start)

	if t.logger != nil {
		if err != nil {
			t.logger.ErrorContext(t.ctx, "operation failed",
				OperationKey, t.operation,
				DurationKey, elapsed.Milliseconds(),
				ErrorKey, err.Error(),
			)
		} else {
			t.logger.DebugContext(t.ctx, "operation completed",
				OperationKey, t.operation,
				DurationKey, elapsed.Milliseconds(),
			)
		}
	}

	if t.metrics != nil {
		tag := T(OperationKey, t.operation)
		t.metrics.Counter(MetricOperationTotal, 1, tag)
		t.metrics.Timing(MetricOperationDuration, elapsed, tag)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, tag)
		}
	}

	return elapsed
}

// TimeOperationResult runs fn under a Timer. fn receives ctx tagged with
// the operation name so its own log lines carry it.
func TimeOperationResult[T any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx = WithOperation(ctx, operation)
	timer := StartTimer(ctx, operation).WithLogger(logger).WithMetrics(metrics)

	result, err := fn(ctx)
	timer.Stop(err)
	return result, err
}
