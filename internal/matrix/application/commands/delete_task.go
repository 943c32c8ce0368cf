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

// DeleteTaskCommand identifies the task to remove.
type DeleteTaskCommand struct {
	TaskID int64
}

// DeleteTaskHandler handles the DeleteTaskCommand.
type DeleteTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	now        func() time.Time
	stats      statsRefresher
}

// NewDeleteTaskHandler creates a new DeleteTaskHandler.
func NewDeleteTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *DeleteTaskHandler {
	return &DeleteTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (h *DeleteTaskHandler) WithClock(now func() time.Time) *DeleteTaskHandler {
	h.now = now
	return h
}

// WithStatsCache invalidates cache after every committed write.
func (h *DeleteTaskHandler) WithStatsCache(cache queries.StatsCache, logger *slog.Logger) *DeleteTaskHandler {
	h.stats = newStatsRefresher(cache, logger)
	return h
}

// Handle permanently removes the task.
func (h *DeleteTaskHandler) Handle(ctx context.Context, cmd DeleteTaskCommand) error {
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := loadTask(txCtx, h.taskRepo, cmd.TaskID)
		if err != nil {
			return err
		}

		t.MarkDeleted(h.now())

		if err := h.taskRepo.Delete(txCtx, t.ID()); err != nil {
			return err
		}
		return recordEvents(txCtx, h.outboxRepo, t)
	})
	if err != nil {
		return err
	}
	h.stats.refresh(ctx)
	return nil
}
