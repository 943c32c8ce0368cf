package cache

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/eventbus"
)

// StatsInvalidator drops cached statistics whenever a task changes.
type StatsInvalidator struct {
	cache  queries.StatsCache
	logger *slog.Logger
}

// NewStatsInvalidator creates an event consumer for cache.
func NewStatsInvalidator(cache queries.StatsCache, logger *slog.Logger) *StatsInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsInvalidator{cache: cache, logger: logger}
}

func (i *StatsInvalidator) EventTypes() []string {
	return []string{
		task.RoutingKeyCreated,
		task.RoutingKeyUpdated,
		task.RoutingKeyCompleted,
		task.RoutingKeyDeleted,
	}
}

func (i *StatsInvalidator) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if err := i.cache.Invalidate(ctx); err != nil {
		return err
	}
	i.logger.DebugContext(ctx, "stats cache invalidated",
		"routing_key", event.RoutingKey,
		"task_id", event.AggregateID,
	)
	return nil
}
