package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/app"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/quadra/pkg/config"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

const statsInterval = time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(os.Getenv("QUADRA_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, cli.Version)
	logger.Info("starting quadra worker")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// The worker always relays, whatever the serving processes do.
	processor := container.OutboxProcessor
	if err := container.StartRelay(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	if cfg.RabbitMQURL != "" {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			QueueName: eventbus.DefaultConsumerQueueName,
			Logger:    logger,
		}, eventbus.NewConsumerRegistry(logger).WithMetrics(container.Metrics))
		if err != nil {
			if !cfg.IsDevelopment() {
				logger.Error("failed to start RabbitMQ consumer", "error", err)
				os.Exit(1)
			}
			logger.Warn("RabbitMQ not available, cache invalidation stays in process", "error", err)
		} else {
			defer consumer.Close()
			consumer.RegisterConsumer(container.StatsInvalidator)
			go func() {
				if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("RabbitMQ consumer stopped", "error", err)
				}
			}()
		}
	}

	if cfg.WorkerHealthAddr != "" {
		startHealthServer(ctx, cfg, container, logger)
	}

	statsTicker := time.NewTicker(statsInterval)
	defer statsTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-statsTicker.C:
				logStats(logger, processor.Stats())
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down worker")

	stopStart := time.Now()
	processor.Stop()
	observability.LogDuration(logger, "outbox.stop", stopStart)
	logger.Info("worker stopped")
}

func startHealthServer(ctx context.Context, cfg *config.Config, container *app.Container, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := container.OutboxProcessor.Stats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})
	mux.Handle("/readyz", container.Health.Handler())
	mux.Handle("/metrics", observability.MetricsHandler(container.Metrics))

	healthSrv := &http.Server{
		Addr:              cfg.WorkerHealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}

func logStats(logger *slog.Logger, stats outbox.Stats) {
	observability.LogOperation(logger, "outbox.stats").Info("outbox stats",
		"running", stats.IsRunning,
		"published", stats.PublishedCount,
		"failed", stats.FailedCount,
		"dead", stats.DeadCount,
		"lag_seconds", stats.LagSeconds,
		"oldest_message_at", stats.OldestMessageAt,
		"last_processed_at", stats.LastProcessedAt,
		"last_error_at", stats.LastErrorAt,
		"last_error", stats.LastError,
	)
}
