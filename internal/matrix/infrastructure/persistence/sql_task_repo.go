package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/database"
)

const taskColumns = `id, title, description, is_important, is_urgent, quadrant,
       completed, deadline_at, created_at, completed_at`

// SQLTaskRepository implements task.Repository on SQLite or PostgreSQL.
// Statements run inside the transaction carried by ctx when there is one.
type SQLTaskRepository struct {
	conn database.Connection
}

// NewSQLTaskRepository creates a new SQL task repository.
func NewSQLTaskRepository(conn database.Connection) *SQLTaskRepository {
	return &SQLTaskRepository{conn: conn}
}

func (r *SQLTaskRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

// taskRow mirrors a row of the tasks table.
type taskRow struct {
	ID          int64
	Title       string
	Description sql.NullString
	IsImportant bool
	IsUrgent    bool
	Quadrant    string
	Completed   bool
	DeadlineAt  database.NullTime
	CreatedAt   database.NullTime
	CompletedAt database.NullTime
}

func (row *taskRow) dest() []any {
	return []any{
		&row.ID, &row.Title, &row.Description, &row.IsImportant, &row.IsUrgent,
		&row.Quadrant, &row.Completed, &row.DeadlineAt, &row.CreatedAt, &row.CompletedAt,
	}
}

func (row *taskRow) toDomain() (*task.Task, error) {
	quadrant, err := task.ParseQuadrant(row.Quadrant)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", row.ID, err)
	}

	var description *string
	if row.Description.Valid {
		description = &row.Description.String
	}

	return task.Rehydrate(task.Snapshot{
		ID:          row.ID,
		Title:       row.Title,
		Description: description,
		IsImportant: row.IsImportant,
		IsUrgent:    row.IsUrgent,
		Quadrant:    quadrant,
		Completed:   row.Completed,
		DeadlineAt:  row.DeadlineAt.Ptr(),
		CreatedAt:   row.CreatedAt.Time,
		CompletedAt: row.CompletedAt.Ptr(),
	}), nil
}

// Create inserts the task and assigns the generated id.
func (r *SQLTaskRepository) Create(ctx context.Context, t *task.Task) error {
	driver := r.conn.Driver()
	s := t.Snapshot()

	var id int64
	err := r.exec(ctx).QueryRow(ctx, `
		INSERT INTO tasks (title, description, is_important, is_urgent, quadrant,
		                   completed, deadline_at, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		s.Title,
		s.Description,
		s.IsImportant,
		s.IsUrgent,
		s.Quadrant.String(),
		s.Completed,
		database.NullTimeArg(driver, s.DeadlineAt),
		database.TimeArg(driver, s.CreatedAt),
		database.NullTimeArg(driver, s.CompletedAt),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	return t.AssignID(id)
}

// Update overwrites every mutable column of an existing task.
func (r *SQLTaskRepository) Update(ctx context.Context, t *task.Task) error {
	driver := r.conn.Driver()
	s := t.Snapshot()

	result, err := r.exec(ctx).Exec(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, is_important = ?, is_urgent = ?, quadrant = ?,
		    completed = ?, deadline_at = ?, completed_at = ?
		WHERE id = ?`,
		s.Title,
		s.Description,
		s.IsImportant,
		s.IsUrgent,
		s.Quadrant.String(),
		s.Completed,
		database.NullTimeArg(driver, s.DeadlineAt),
		database.NullTimeArg(driver, s.CompletedAt),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", s.ID, err)
	}
	return requireAffected(result, s.ID)
}

func (r *SQLTaskRepository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	var row taskRow
	err := r.exec(ctx).QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id).Scan(row.dest()...)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, &task.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
	return row.toDomain()
}

func (r *SQLTaskRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
}

func (r *SQLTaskRepository) FindByQuadrant(ctx context.Context, quadrant task.Quadrant) ([]*task.Task, error) {
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE quadrant = ? ORDER BY id`, quadrant.String())
}

func (r *SQLTaskRepository) FindByStatus(ctx context.Context, status task.Status) ([]*task.Task, error) {
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE completed = ? ORDER BY id`, status == task.StatusCompleted)
}

func (r *SQLTaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.exec(ctx).Exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return requireAffected(result, id)
}

func (r *SQLTaskRepository) query(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := r.exec(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	tasks, err := database.CollectRows(rows, scanTask)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(rows database.Rows) (*task.Task, error) {
	var row taskRow
	if err := rows.Scan(row.dest()...); err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return row.toDomain()
}

func requireAffected(result database.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &task.NotFoundError{ID: id}
	}
	return nil
}
