package queries

import (
	"context"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// SearchTasksQuery contains the search term.
type SearchTasksQuery struct {
	Query string
}

// SearchTasksHandler handles the SearchTasksQuery.
type SearchTasksHandler struct {
	taskRepo task.Repository
}

// NewSearchTasksHandler creates a new SearchTasksHandler.
func NewSearchTasksHandler(taskRepo task.Repository) *SearchTasksHandler {
	return &SearchTasksHandler{taskRepo: taskRepo}
}

// Handle returns the tasks whose title or description contains the query,
// ignoring case.
func (h *SearchTasksHandler) Handle(ctx context.Context, query SearchTasksQuery) ([]TaskDTO, error) {
	if err := task.ValidateSearchQuery(query.Query); err != nil {
		return nil, err
	}

	tasks, err := h.taskRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return ToTaskDTOs(filterTasks(tasks, func(t *task.Task) bool { return t.Matches(query.Query) })), nil
}
