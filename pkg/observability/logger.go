// Package observability provides structured logging, metrics collection,
// health checks and request tracing for the quadra services.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// ServiceName is the default service attribute on every log line.
const ServiceName = "quadra"

// LogFormat selects the handler that renders log records.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is a level name as it appears in config and environment.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger. Output defaults to stderr.
type LogConfig struct {
	Level          LogLevel
	Format         LogFormat
	Output         io.Writer
	AddSource      bool
	ServiceName    string
	ServiceVersion string
}

// ConfigForEnvironment returns the base log configuration for an
// application environment. Production logs JSON with source locations to
// stdout; everything else logs text to stderr.
func ConfigForEnvironment(env string) LogConfig {
	cfg := LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    ServiceName,
		ServiceVersion: "dev",
	}
	if env == "production" {
		cfg.Format = LogFormatJSON
		cfg.Output = os.Stdout
		cfg.AddSource = true
		cfg.ServiceVersion = "unknown"
	}
	return cfg
}

// LoggerFromEnv builds a logger before any config file is read.
//
//	QUADRA_ENV         production selects JSON output
//	QUADRA_LOG_LEVEL   debug, info, warn, error
//	QUADRA_LOG_FORMAT  text, json
//	QUADRA_VERSION     version attribute
func LoggerFromEnv() *slog.Logger {
	cfg := ConfigForEnvironment(os.Getenv("QUADRA_ENV"))
	if v := os.Getenv("QUADRA_LOG_LEVEL"); v != "" {
		cfg.Level = LogLevel(v)
	}
	if v := os.Getenv("QUADRA_LOG_FORMAT"); v != "" {
		cfg.Format = LogFormat(v)
	}
	if v := os.Getenv("QUADRA_VERSION"); v != "" {
		cfg.ServiceVersion = v
	}
	return NewLogger(cfg)
}

// NewLogger creates a logger whose records carry the service attributes
// plus the request, correlation and operation ids found in the context.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel(), AddSource: cfg.AddSource}

	var base slog.Handler
	if cfg.Format == LogFormatJSON {
		base = slog.NewJSONHandler(out, opts)
	} else {
		base = slog.NewTextHandler(out, opts)
	}

	var static []slog.Attr
	if cfg.ServiceName != "" {
		static = append(static, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		static = append(static, slog.String("version", cfg.ServiceVersion))
	}
	if len(static) > 0 {
		base = base.WithAttrs(static)
	}

	return slog.New(contextHandler{next: base})
}

// slogLevel maps a level name onto slog, ignoring case. Unknown names log
// at info.
func (l LogLevel) slogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// contextHandler copies tracing ids from the record's context into the
// record. An operation attribute set explicitly wins over the context one.
type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	if op := OperationFromContext(ctx); op != "" && !hasAttr(r, OperationKey) {
		r.AddAttrs(slog.String(OperationKey, op))
	}
	return h.next.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}

func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		found = a.Key == key
		return !found
	})
	return found
}

// LogOperation returns a logger that tags every line with operation.
func LogOperation(logger *slog.Logger, operation string, attrs ...any) *slog.Logger {
	return logger.With(append([]any{OperationKey, operation}, attrs...)...)
}

// LogDuration logs how long operation has been running since start.
func LogDuration(logger *slog.Logger, operation string, start time.Time) {
	logger.Info("operation completed",
		OperationKey, operation,
		DurationKey, time.Since(start).Milliseconds(),
	)
}
