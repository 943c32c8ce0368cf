package cli

import (
	"context"
	"log/slog"
	"os"

	internalApp "github.com/felixgeelhaar/quadra/internal/app"
	"github.com/felixgeelhaar/quadra/pkg/config"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// NewAppFromContainer exposes a container's handlers to the commands.
// Closing the App closes the container.
func NewAppFromContainer(c *internalApp.Container) *App {
	a := NewApp(
		c.CreateTaskHandler,
		c.UpdateTaskHandler,
		c.CompleteTaskHandler,
		c.DeleteTaskHandler,
		c.GetTaskHandler,
		c.ListTasksHandler,
		c.SearchTasksHandler,
		c.GetStatsHandler,
		c.UpcomingDeadlinesHandler,
	)
	a.SetHealth(c.Health)
	a.SetMetrics(c.Metrics)
	a.SetFlush(c.DrainOutbox)
	a.SetCloser(c.Close)
	return a
}

// DefaultBootstrap loads the configuration and wires a container for
// one-shot commands.
func DefaultBootstrap(ctx context.Context, configPath string, verbose bool) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	l := CommandLogger(cfg, verbose)
	SetLogger(l)

	container, err := internalApp.NewContainer(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	return NewAppFromContainer(container), nil
}

// CommandLogger logs warnings and errors to stderr, or everything when
// verbose is set.
func CommandLogger(cfg *config.Config, verbose bool) *slog.Logger {
	lc := observability.ConfigForEnvironment(cfg.AppEnv)
	lc.Output = os.Stderr
	lc.Level = observability.LogLevelWarn
	if verbose {
		lc.Level = observability.LogLevelDebug
	}
	lc.ServiceVersion = Version
	return observability.NewLogger(lc)
}
