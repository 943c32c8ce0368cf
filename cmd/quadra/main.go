package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/adapter/cli/mcp"
	"github.com/felixgeelhaar/quadra/adapter/cli/server"
	"github.com/felixgeelhaar/quadra/adapter/cli/task"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Replaced by the configured logger once the config file is known.
	cli.SetLogger(observability.LoggerFromEnv())
	cli.SetBootstrap(cli.DefaultBootstrap)

	// Register commands
	cli.AddCommand(task.Cmd)
	cli.AddCommand(server.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.Execute(ctx)
}
