package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App    *cli.App
	Logger *slog.Logger
}

// RegisterCLITools registers MCP tools that mirror CLI functionality.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	t := newToolset(deps)
	registerCoreTools(srv, t)
	registerTaskTools(srv, t)
	registerMatrixTools(srv, t)
	return nil
}

// toolset holds the tool implementations so they can be called without a
// transport.
type toolset struct {
	app     *cli.App
	logger  *slog.Logger
	metrics observability.Metrics
}

func newToolset(deps ToolDependencies) *toolset {
	return &toolset{app: deps.App, logger: deps.Logger, metrics: deps.App.Metrics}
}

var errNoDatabase = errors.New("requires database connection")

// timed records the duration and outcome of every call of a tool.
func timed[I, O any](t *toolset, name string, fn func(context.Context, I) (O, error)) func(context.Context, I) (O, error) {
	return func(ctx context.Context, input I) (O, error) {
		return observability.TimeOperationResult(ctx, t.logger, t.metrics, "mcp."+name, func(ctx context.Context) (O, error) {
			return fn(ctx, input)
		})
	}
}
