package queries

import (
	"context"
	"strconv"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// GetTaskQuery contains the parameters for getting a single task.
type GetTaskQuery struct {
	TaskID int64
}

// GetTaskHandler handles the GetTaskQuery.
type GetTaskHandler struct {
	taskRepo task.Repository
}

// NewGetTaskHandler creates a new GetTaskHandler.
func NewGetTaskHandler(taskRepo task.Repository) *GetTaskHandler {
	return &GetTaskHandler{taskRepo: taskRepo}
}

// Handle executes the GetTaskQuery.
func (h *GetTaskHandler) Handle(ctx context.Context, query GetTaskQuery) (*TaskDTO, error) {
	if err := ValidateTaskID(query.TaskID); err != nil {
		return nil, err
	}

	t, err := h.taskRepo.FindByID(ctx, query.TaskID)
	if err != nil {
		return nil, err
	}

	dto := ToTaskDTO(t)
	return &dto, nil
}

// ValidateTaskID rejects ids the store can never have issued.
func ValidateTaskID(id int64) error {
	if id <= 0 {
		return &task.InvalidInputError{
			Field:   "id",
			Value:   strconv.FormatInt(id, 10),
			Message: "must be a positive integer",
		}
	}
	return nil
}
