package queries

import (
	"context"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// ListTasksQuery contains the parameters for listing tasks.
// Empty filters are ignored; both may be combined.
type ListTasksQuery struct {
	Quadrant string // "Q1".."Q4"
	Status   string // "pending", "completed"
}

// ListTasksHandler handles the ListTasksQuery.
type ListTasksHandler struct {
	taskRepo task.Repository
}

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(taskRepo task.Repository) *ListTasksHandler {
	return &ListTasksHandler{taskRepo: taskRepo}
}

// Handle executes the ListTasksQuery. Results are in id order.
func (h *ListTasksHandler) Handle(ctx context.Context, query ListTasksQuery) ([]TaskDTO, error) {
	var (
		quadrant    task.Quadrant
		status      task.Status
		hasQuadrant = query.Quadrant != ""
		hasStatus   = query.Status != ""
		err         error
	)

	if hasQuadrant {
		if quadrant, err = task.ParseQuadrant(query.Quadrant); err != nil {
			return nil, err
		}
	}
	if hasStatus {
		if status, err = task.ParseStatus(query.Status); err != nil {
			return nil, err
		}
	}

	var tasks []*task.Task
	switch {
	case hasQuadrant:
		tasks, err = h.taskRepo.FindByQuadrant(ctx, quadrant)
	case hasStatus:
		tasks, err = h.taskRepo.FindByStatus(ctx, status)
	default:
		tasks, err = h.taskRepo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	if hasQuadrant && hasStatus {
		tasks = filterTasks(tasks, func(t *task.Task) bool { return t.HasStatus(status) })
	}

	return ToTaskDTOs(tasks), nil
}

func filterTasks(tasks []*task.Task, keep func(*task.Task) bool) []*task.Task {
	result := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			result = append(result, t)
		}
	}
	return result
}
