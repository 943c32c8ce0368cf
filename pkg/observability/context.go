package observability

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	correlationIDCtxKey ctxKey = iota
	requestIDCtxKey
	operationCtxKey
)

// HTTP headers and AMQP properties that carry the tracing ids across
// process boundaries.
const (
	CorrelationIDHeader = "X-Correlation-ID"
	RequestIDHeader     = "X-Request-ID"
)

// Attribute keys shared by log lines and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
	StatusKey        = "status"
)

// NewRequestContext opens the tracing scope of one inbound request or
// consumed message. Ids the caller already carries are kept; missing ones
// are generated.
func NewRequestContext(ctx context.Context, requestID, correlationID string) context.Context {
	return WithCorrelationID(WithRequestID(ctx, requestID), correlationID)
}

// WithCorrelationID adds a correlation id, generating one when id is empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDCtxKey, id)
}

// CorrelationIDFromContext returns the correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDCtxKey)
}

// WithRequestID adds a request id, generating one when id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDCtxKey, id)
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDCtxKey)
}

// WithOperation names the operation running under ctx, such as
// "mcp.task.create". Loggers from NewLogger attach it to every line.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationCtxKey, operation)
}

// OperationFromContext returns the operation name, or "".
func OperationFromContext(ctx context.Context) string {
	return stringValue(ctx, operationCtxKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
