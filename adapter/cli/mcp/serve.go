package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/app"
	mcpinternal "github.com/felixgeelhaar/quadra/internal/mcp"
	"github.com/felixgeelhaar/quadra/pkg/config"
	"github.com/spf13/cobra"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the task tools, resources and prompts over MCP streamable HTTP.
Set MCP_AUTH_TOKEN to require a bearer token.

Examples:
  quadra mcp serve
  quadra mcp serve --addr :9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(cli.ConfigPath())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.MCPAddr = addr
		}

		logger := app.NewLogger(cfg, cli.Version)

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		cliApp := cli.NewAppFromContainer(container)
		defer cliApp.Close()

		if err := container.StartOutbox(ctx); err != nil {
			return err
		}

		err = mcpinternal.Serve(ctx, cfg, cliApp, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
}
