package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/report"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// UpcomingDeadlinesQuery requests the deadline report.
type UpcomingDeadlinesQuery struct{}

// UpcomingDeadlinesHandler handles the UpcomingDeadlinesQuery.
type UpcomingDeadlinesHandler struct {
	taskRepo task.Repository
	now      func() time.Time
}

// NewUpcomingDeadlinesHandler creates a new UpcomingDeadlinesHandler.
func NewUpcomingDeadlinesHandler(taskRepo task.Repository) *UpcomingDeadlinesHandler {
	return &UpcomingDeadlinesHandler{taskRepo: taskRepo, now: time.Now}
}

// WithClock overrides the time source.
func (h *UpcomingDeadlinesHandler) WithClock(now func() time.Time) *UpcomingDeadlinesHandler {
	h.now = now
	return h
}

// Handle executes the UpcomingDeadlinesQuery.
func (h *UpcomingDeadlinesHandler) Handle(ctx context.Context, _ UpcomingDeadlinesQuery) ([]report.DeadlineEntry, error) {
	tasks, err := h.taskRepo.FindByStatus(ctx, task.StatusPending)
	if err != nil {
		return nil, err
	}
	return report.UpcomingDeadlines(tasks, h.now()), nil
}
