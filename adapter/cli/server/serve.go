// Package server provides the command that runs the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/quadra/adapter/api"
	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/adapter/grpchealth"
	"github.com/felixgeelhaar/quadra/internal/app"
	"github.com/felixgeelhaar/quadra/pkg/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var (
	addr     string
	grpcAddr string
)

// Cmd runs the HTTP API until interrupted.
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the REST API together with the outbox relay and, when an address
is configured, the gRPC health service.

Examples:
  quadra serve
  quadra serve --addr :9090 --grpc-health-addr :9091`,
	Annotations: map[string]string{cli.StandaloneAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cli.ConfigPath())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTPAddr = addr
		}
		if cmd.Flags().Changed("grpc-health-addr") {
			cfg.GRPCHealthAddr = grpcAddr
		}
		return Run(cmd.Context(), cfg)
	},
}

// Run serves the API for cfg until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := app.NewLogger(cfg, cli.Version)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	handler, err := api.NewTaskHandler(api.TaskHandlerConfig{
		CreateTask:        container.CreateTaskHandler,
		UpdateTask:        container.UpdateTaskHandler,
		CompleteTask:      container.CompleteTaskHandler,
		DeleteTask:        container.DeleteTaskHandler,
		GetTask:           container.GetTaskHandler,
		ListTasks:         container.ListTasksHandler,
		SearchTasks:       container.SearchTasksHandler,
		GetStats:          container.GetStatsHandler,
		UpcomingDeadlines: container.UpcomingDeadlinesHandler,
		Metrics:           container.Metrics,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build API handler: %w", err)
	}

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTPAddr
	serverCfg.ReadTimeout = cfg.HTTPReadTimeout
	serverCfg.WriteTimeout = cfg.HTTPWriteTimeout

	srv := api.NewServer(serverCfg, handler, logger,
		api.WithMetrics(container.Metrics),
		api.WithDatabasePing(container.Stores.Ping),
	)

	if err := container.StartOutbox(ctx); err != nil {
		return fmt.Errorf("failed to start outbox processor: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.GRPCHealthAddr != "" {
		g.Go(func() error {
			return grpchealth.New(container.Health, logger).Run(gctx, cfg.GRPCHealthAddr)
		})
	}

	return g.Wait()
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	Cmd.Flags().StringVar(&grpcAddr, "grpc-health-addr", "", "gRPC health listen address (overrides config)")
}
