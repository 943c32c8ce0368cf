package task

import (
	"time"

	"github.com/felixgeelhaar/quadra/internal/shared/domain"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated   = "matrix.task.created"
	RoutingKeyUpdated   = "matrix.task.updated"
	RoutingKeyCompleted = "matrix.task.completed"
	RoutingKeyDeleted   = "matrix.task.deleted"
)

// TaskCreated is emitted once the store has assigned an id to a new task.
type TaskCreated struct {
	domain.BaseEvent
	Title       string     `json:"title"`
	IsImportant bool       `json:"is_important"`
	IsUrgent    bool       `json:"is_urgent"`
	Quadrant    string     `json:"quadrant"`
	DeadlineAt  *time.Time `json:"deadline_at,omitempty"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(t *Task) *TaskCreated {
	return &TaskCreated{
		BaseEvent:   domain.NewBaseEvent(t.ID(), AggregateType, RoutingKeyCreated, t.CreatedAt()),
		Title:       t.title,
		IsImportant: t.important,
		IsUrgent:    t.urgent,
		Quadrant:    t.quadrant.String(),
		DeadlineAt:  utcTime(t.deadlineAt),
	}
}

// TaskUpdated is emitted when a patch is merged into a task.
type TaskUpdated struct {
	domain.BaseEvent
	Fields           []string `json:"fields"`
	Reclassified     bool     `json:"reclassified"`
	PreviousQuadrant string   `json:"previous_quadrant"`
	Quadrant         string   `json:"quadrant"`
}

// NewTaskUpdated creates a TaskUpdated event.
func NewTaskUpdated(taskID int64, result MergeResult, current Quadrant, now time.Time) *TaskUpdated {
	return &TaskUpdated{
		BaseEvent:        domain.NewBaseEvent(taskID, AggregateType, RoutingKeyUpdated, now),
		Fields:           result.Fields,
		Reclassified:     result.Reclassified,
		PreviousQuadrant: result.PreviousQuadrant.String(),
		Quadrant:         current.String(),
	}
}

// TaskCompleted is emitted on every completion, including repeated ones.
type TaskCompleted struct {
	domain.BaseEvent
	CompletedAt time.Time `json:"completed_at"`
}

// NewTaskCompleted creates a TaskCompleted event.
func NewTaskCompleted(taskID int64, completedAt, now time.Time) *TaskCompleted {
	return &TaskCompleted{
		BaseEvent:   domain.NewBaseEvent(taskID, AggregateType, RoutingKeyCompleted, now),
		CompletedAt: completedAt,
	}
}

// TaskDeleted is emitted when a task is permanently removed.
type TaskDeleted struct {
	domain.BaseEvent
}

// NewTaskDeleted creates a TaskDeleted event.
func NewTaskDeleted(taskID int64, now time.Time) *TaskDeleted {
	return &TaskDeleted{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyDeleted, now),
	}
}
