package queries

import (
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// TaskDTO is the outward representation of a task.
type TaskDTO struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	IsImportant bool       `json:"is_important"`
	IsUrgent    bool       `json:"is_urgent"`
	Quadrant    string     `json:"quadrant"`
	Completed   bool       `json:"completed"`
	DeadlineAt  *time.Time `json:"deadline_at"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ToTaskDTO maps a task to its DTO.
func ToTaskDTO(t *task.Task) TaskDTO {
	return TaskDTO{
		ID:          t.ID(),
		Title:       t.Title(),
		Description: t.Description(),
		IsImportant: t.IsImportant(),
		IsUrgent:    t.IsUrgent(),
		Quadrant:    t.Quadrant().String(),
		Completed:   t.IsCompleted(),
		DeadlineAt:  t.DeadlineAt(),
		CreatedAt:   t.CreatedAt(),
		CompletedAt: t.CompletedAt(),
	}
}

// ToTaskDTOs maps a task list, never returning nil.
func ToTaskDTOs(tasks []*task.Task) []TaskDTO {
	dtos := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, ToTaskDTO(t))
	}
	return dtos
}
