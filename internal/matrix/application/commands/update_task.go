package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	sharedApplication "github.com/felixgeelhaar/quadra/internal/shared/application"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/outbox"
)

// UpdateTaskCommand carries a partial update for one task.
type UpdateTaskCommand struct {
	TaskID int64
	Patch  task.Patch
}

// UpdateTaskResult is the merged task plus what the merge did.
type UpdateTaskResult struct {
	Task         queries.TaskDTO
	Fields       []string
	Reclassified bool
}

// UpdateTaskHandler handles the UpdateTaskCommand.
type UpdateTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	now        func() time.Time
	stats      statsRefresher
}

// NewUpdateTaskHandler creates a new UpdateTaskHandler.
func NewUpdateTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *UpdateTaskHandler {
	return &UpdateTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (h *UpdateTaskHandler) WithClock(now func() time.Time) *UpdateTaskHandler {
	h.now = now
	return h
}

// WithStatsCache invalidates cache after every committed write.
func (h *UpdateTaskHandler) WithStatsCache(cache queries.StatsCache, logger *slog.Logger) *UpdateTaskHandler {
	h.stats = newStatsRefresher(cache, logger)
	return h
}

// Handle merges the patch into the stored task. An empty patch returns the
// task unchanged without writing.
func (h *UpdateTaskHandler) Handle(ctx context.Context, cmd UpdateTaskCommand) (*UpdateTaskResult, error) {
	var result *UpdateTaskResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := loadTask(txCtx, h.taskRepo, cmd.TaskID)
		if err != nil {
			return err
		}

		merge, err := t.Apply(cmd.Patch, h.now())
		if err != nil {
			return err
		}

		if len(merge.Fields) > 0 {
			if err := h.taskRepo.Update(txCtx, t); err != nil {
				return err
			}
			if err := recordEvents(txCtx, h.outboxRepo, t); err != nil {
				return err
			}
		}

		result = &UpdateTaskResult{
			Task:         queries.ToTaskDTO(t),
			Fields:       merge.Fields,
			Reclassified: merge.Reclassified,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.stats.refresh(ctx)

	return result, nil
}
