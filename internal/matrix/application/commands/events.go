package commands

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	sharedApplication "github.com/felixgeelhaar/quadra/internal/shared/application"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// recordEvents moves the task's pending events into the outbox within the
// caller's unit of work, tagged with the request's correlation id.
func recordEvents(ctx context.Context, outboxRepo outbox.Repository, t *task.Task) error {
	events := t.DomainEvents()
	if len(events) == 0 {
		return nil
	}

	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(observability.CorrelationIDFromContext(ctx)))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return err
	}

	t.ClearDomainEvents()
	return nil
}

func loadTask(ctx context.Context, repo task.Repository, id int64) (*task.Task, error) {
	if err := queries.ValidateTaskID(id); err != nil {
		return nil, err
	}
	return repo.FindByID(ctx, id)
}

// statsRefresher drops cached statistics once a write has committed, so the
// next stats read sees it. A failed invalidation is logged, not returned:
// the write already succeeded and the relayed event retries it.
type statsRefresher struct {
	cache  queries.StatsCache
	logger *slog.Logger
}

func newStatsRefresher(cache queries.StatsCache, logger *slog.Logger) statsRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return statsRefresher{cache: cache, logger: logger}
}

func (r statsRefresher) refresh(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		r.logger.WarnContext(ctx, "stats cache invalidation failed", "error", err)
	}
}
