package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// InMemoryTaskRepository keeps tasks in process memory. Ids come from a
// high-water mark and are never reused after a delete.
type InMemoryTaskRepository struct {
	mu     sync.RWMutex
	tasks  map[int64]task.Snapshot
	lastID int64
}

// NewInMemoryTaskRepository creates an empty repository.
func NewInMemoryTaskRepository() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{tasks: make(map[int64]task.Snapshot)}
}

func (r *InMemoryTaskRepository) Create(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.lastID + 1
	if err := t.AssignID(id); err != nil {
		return err
	}
	r.lastID = id
	r.tasks[id] = t.Snapshot()
	return nil
}

func (r *InMemoryTaskRepository) Update(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID()]; !ok {
		return &task.NotFoundError{ID: t.ID()}
	}
	r.tasks[t.ID()] = t.Snapshot()
	return nil
}

func (r *InMemoryTaskRepository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.tasks[id]
	if !ok {
		return nil, &task.NotFoundError{ID: id}
	}
	return task.Rehydrate(s), nil
}

func (r *InMemoryTaskRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	return r.filter(func(task.Snapshot) bool { return true }), nil
}

func (r *InMemoryTaskRepository) FindByQuadrant(ctx context.Context, quadrant task.Quadrant) ([]*task.Task, error) {
	return r.filter(func(s task.Snapshot) bool { return s.Quadrant == quadrant }), nil
}

func (r *InMemoryTaskRepository) FindByStatus(ctx context.Context, status task.Status) ([]*task.Task, error) {
	return r.filter(func(s task.Snapshot) bool { return status.Matches(s.Completed) }), nil
}

func (r *InMemoryTaskRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return &task.NotFoundError{ID: id}
	}
	delete(r.tasks, id)
	return nil
}

// Len returns the number of stored tasks.
func (r *InMemoryTaskRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func (r *InMemoryTaskRepository) filter(keep func(task.Snapshot) bool) []*task.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*task.Task, 0, len(r.tasks))
	for _, s := range r.tasks {
		if keep(s) {
			result = append(result, task.Rehydrate(s))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
