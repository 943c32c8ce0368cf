package app

import (
	"log/slog"

	"github.com/felixgeelhaar/quadra/pkg/config"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// NewLogger builds the process logger for the configured environment and
// log level.
func NewLogger(cfg *config.Config, version string) *slog.Logger {
	lc := observability.ConfigForEnvironment(cfg.AppEnv)
	if cfg.LogLevel != "" {
		lc.Level = observability.LogLevel(cfg.LogLevel)
	}
	if version != "" {
		lc.ServiceVersion = version
	}
	return observability.NewLogger(lc)
}
