package task

import "context"

// Repository defines the interface for task persistence.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create persists a transient task and assigns its id.
	Create(ctx context.Context, task *Task) error
	// Update overwrites the stored state of an existing task.
	Update(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id int64) (*Task, error)
	// FindAll returns every task in id order.
	FindAll(ctx context.Context) ([]*Task, error)
	FindByQuadrant(ctx context.Context, quadrant Quadrant) ([]*Task, error)
	FindByStatus(ctx context.Context, status Status) ([]*Task, error)
	Delete(ctx context.Context, id int64) error
}
