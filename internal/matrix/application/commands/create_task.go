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

// CreateTaskCommand contains the data needed to create a task.
// IsUrgent is only used when no deadline is given; nil means not urgent.
type CreateTaskCommand struct {
	Title       string
	Description *string
	IsImportant bool
	DeadlineAt  *time.Time
	IsUrgent    *bool
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	now        func() time.Time
	stats      statsRefresher
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateTaskHandler {
	return &CreateTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (h *CreateTaskHandler) WithClock(now func() time.Time) *CreateTaskHandler {
	h.now = now
	return h
}

// WithStatsCache invalidates cache after every committed write.
func (h *CreateTaskHandler) WithStatsCache(cache queries.StatsCache, logger *slog.Logger) *CreateTaskHandler {
	h.stats = newStatsRefresher(cache, logger)
	return h
}

// Handle executes the CreateTaskCommand.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*queries.TaskDTO, error) {
	var result *queries.TaskDTO

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		draft := task.Draft{
			Title:       cmd.Title,
			Description: cmd.Description,
			IsImportant: cmd.IsImportant,
			DeadlineAt:  cmd.DeadlineAt,
		}
		if cmd.IsUrgent != nil {
			draft.IsUrgent = *cmd.IsUrgent
		}

		t, err := task.NewTask(draft, h.now())
		if err != nil {
			return err
		}

		if err := h.taskRepo.Create(txCtx, t); err != nil {
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
