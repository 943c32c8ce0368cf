package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/felixgeelhaar/quadra/internal/matrix/infrastructure/cache"
	sharedApplication "github.com/felixgeelhaar/quadra/internal/shared/application"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/quadra/pkg/config"
	"github.com/felixgeelhaar/quadra/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	// Storage
	Stores     *Stores
	DBDriver   database.Driver
	TaskRepo   task.Repository
	OutboxRepo outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork

	// Redis (nil when not configured or unreachable)
	RedisClient *redis.Client
	StatsCache  queries.StatsCache

	// Events
	EventBus         *eventbus.InProcessEventBus
	BrokerPublisher  *eventbus.BreakerPublisher // nil without RabbitMQ
	EventPublisher   eventbus.Publisher
	StatsInvalidator *cache.StatsInvalidator
	OutboxProcessor  *outbox.Processor

	// Task Command Handlers
	CreateTaskHandler   *commands.CreateTaskHandler
	UpdateTaskHandler   *commands.UpdateTaskHandler
	CompleteTaskHandler *commands.CompleteTaskHandler
	DeleteTaskHandler   *commands.DeleteTaskHandler

	// Task Query Handlers
	GetTaskHandler           *queries.GetTaskHandler
	ListTasksHandler         *queries.ListTasksHandler
	SearchTasksHandler       *queries.SearchTasksHandler
	GetStatsHandler          *queries.GetStatsHandler
	UpcomingDeadlinesHandler *queries.UpcomingDeadlinesHandler
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	stores, err := OpenStores(ctx, ResolveDatabaseConfig(cfg.DatabaseURL, cfg.DatabaseMaxConns), logger)
	if err != nil {
		return nil, err
	}
	c.Stores = stores
	c.DBDriver = stores.Driver
	c.TaskRepo = stores.Tasks
	c.OutboxRepo = stores.Outbox
	c.UnitOfWork = stores.UnitOfWork
	c.Health.Register("database", observability.TaskStoreHealthChecker(stores.Driver.String(), stores.Ping))

	c.StatsCache = c.newStatsCache(ctx)

	// Command handlers invalidate the stats cache on commit. The invalidator
	// consumer covers writes made by other processes sharing a Redis cache.
	// A configured broker additionally receives every event for the worker.
	c.EventBus = eventbus.NewInProcessEventBus(eventbus.NewConsumerRegistry(logger).WithMetrics(c.Metrics), logger)
	c.StatsInvalidator = cache.NewStatsInvalidator(c.StatsCache, logger)
	c.EventBus.RegisterConsumer(c.StatsInvalidator)
	c.EventPublisher = c.EventBus

	if cfg.RabbitMQURL != "" {
		rabbit, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, events stay in process", "error", err)
		} else {
			c.BrokerPublisher = eventbus.NewBreakerPublisher("rabbitmq", rabbit, BreakerConfig(cfg), logger)
			c.EventPublisher = eventbus.NewFanoutPublisher(c.BrokerPublisher, c.EventBus)
			c.Health.Register("rabbitmq", observability.DependencyHealthChecker("rabbitmq", c.brokerState))
			logger.Info("connected to RabbitMQ")
		}
	}

	c.OutboxProcessor = outbox.NewProcessor(
		c.OutboxRepo,
		c.EventPublisher,
		ProcessorConfig(cfg),
		logger,
		outbox.WithMetrics(c.Metrics),
	)

	// Create task command handlers
	c.CreateTaskHandler = commands.NewCreateTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork).
		WithStatsCache(c.StatsCache, logger)
	c.UpdateTaskHandler = commands.NewUpdateTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork).
		WithStatsCache(c.StatsCache, logger)
	c.CompleteTaskHandler = commands.NewCompleteTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork).
		WithStatsCache(c.StatsCache, logger)
	c.DeleteTaskHandler = commands.NewDeleteTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork).
		WithStatsCache(c.StatsCache, logger)

	// Create task query handlers
	c.GetTaskHandler = queries.NewGetTaskHandler(c.TaskRepo)
	c.ListTasksHandler = queries.NewListTasksHandler(c.TaskRepo)
	c.SearchTasksHandler = queries.NewSearchTasksHandler(c.TaskRepo)
	c.GetStatsHandler = queries.NewGetStatsHandler(c.TaskRepo, c.StatsCache, logger).
		WithMetrics(c.Metrics)
	c.UpcomingDeadlinesHandler = queries.NewUpcomingDeadlinesHandler(c.TaskRepo)

	return c, nil
}

// newStatsCache prefers Redis and falls back to process memory.
func (c *Container) newStatsCache(ctx context.Context) queries.StatsCache {
	if c.Config.RedisURL == "" {
		return cache.NewMemoryStatsCache(c.Config.StatsCacheTTL)
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid Redis URL, stats cache will use process memory", "error", err)
		return cache.NewMemoryStatsCache(c.Config.StatsCacheTTL)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		c.Logger.Warn("Redis not available, stats cache will use process memory", "error", err)
		return cache.NewMemoryStatsCache(c.Config.StatsCacheTTL)
	}

	c.RedisClient = client
	c.Health.Register("redis", observability.DependencyHealthChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return cache.NewRedisStatsCache(client, c.Config.StatsCacheTTL)
}

func (c *Container) brokerState(context.Context) error {
	if c.BrokerPublisher.State() == "open" {
		return eventbus.ErrPublisherUnavailable
	}
	return nil
}

// outboxMaxLag is how long a pending event may wait before the relay
// reports degraded.
const outboxMaxLag = 5 * time.Minute

// StartOutbox starts the relay when it is enabled in the configuration.
func (c *Container) StartOutbox(ctx context.Context) error {
	if !c.Config.OutboxProcessorEnabled {
		c.Logger.Info("outbox processor disabled")
		return nil
	}
	return c.StartRelay(ctx)
}

// StartRelay starts the relay unconditionally and adds it to the health
// report.
func (c *Container) StartRelay(ctx context.Context) error {
	if err := c.OutboxProcessor.Start(ctx); err != nil {
		return err
	}
	c.Health.Register("outbox", c.OutboxProcessor.HealthCheck(outboxMaxLag))
	return nil
}

// DrainOutbox relays everything currently pending. One-shot commands use it
// so their events are not left behind when the process exits.
func (c *Container) DrainOutbox(ctx context.Context) error {
	return c.OutboxProcessor.ProcessOnce(ctx)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.Stores != nil {
		if err := c.Stores.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else if c.Stores.Conn != nil {
			c.Logger.Info("database connection closed", "driver", c.DBDriver.String())
		}
	}
}

// ProcessorConfig maps the outbox settings onto the relay configuration.
func ProcessorConfig(cfg *config.Config) outbox.ProcessorConfig {
	pc := outbox.DefaultProcessorConfig()
	pc.PollInterval = cfg.OutboxPollInterval
	pc.BatchSize = cfg.OutboxBatchSize
	pc.MaxRetries = cfg.OutboxMaxRetries
	pc.Retention = cfg.OutboxRetention
	pc.CleanupInterval = cfg.OutboxCleanupInterval
	return pc
}

// BreakerConfig maps the breaker settings onto the publisher breaker.
func BreakerConfig(cfg *config.Config) eventbus.BreakerConfig {
	bc := eventbus.DefaultBreakerConfig()
	if cfg.BreakerFailureThreshold > 0 {
		bc.FailureThreshold = uint32(cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerTimeout > 0 {
		bc.Timeout = cfg.BreakerTimeout
	}
	if cfg.BreakerInterval > 0 {
		bc.Interval = cfg.BreakerInterval
	}
	return bc
}
