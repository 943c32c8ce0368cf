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

// CompleteTaskCommand contains the data needed to complete a task.
type CompleteTaskCommand struct {
	TaskID int64
}

// CompleteTaskHandler handles the CompleteTaskCommand.
type CompleteTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	now        func() time.Time
	stats      statsRefresher
}

// NewCompleteTaskHandler creates a new CompleteTaskHandler.
func NewCompleteTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CompleteTaskHandler {
	return &CompleteTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (h *CompleteTaskHandler) WithClock(now func() time.Time) *CompleteTaskHandler {
	h.now = now
	return h
}

// WithStatsCache invalidates cache after every committed write.
func (h *CompleteTaskHandler) WithStatsCache(cache queries.StatsCache, logger *slog.Logger) *CompleteTaskHandler {
	h.stats = newStatsRefresher(cache, logger)
	return h
}

// Handle executes the CompleteTaskCommand. Completing an already completed
// task re-stamps completed_at.
func (h *CompleteTaskHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) (*queries.TaskDTO, error) {
	var result *queries.TaskDTO

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := loadTask(txCtx, h.taskRepo, cmd.TaskID)
		if err != nil {
			return err
		}

		t.Complete(h.now())

		if err := h.taskRepo.Update(txCtx, t); err != nil {
			return err
		}
		if err := recordEvents(txCtx, h.outboxRepo, t); err != nil {
			return err
		}

		dto := queries.ToTaskDTO(t)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.stats.refresh(ctx)

	return result, nil
}
