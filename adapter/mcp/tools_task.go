package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

type taskCreateInput struct {
	Title       string  `json:"title" jsonschema:"required"`
	Description *string `json:"description,omitempty"`
	IsImportant bool    `json:"is_important,omitempty"`
	IsUrgent    *bool   `json:"is_urgent,omitempty"`
	DeadlineAt  string  `json:"deadline_at,omitempty"`
}

type taskListInput struct {
	Quadrant string `json:"quadrant,omitempty"`
	Status   string `json:"status,omitempty"`
}

type taskSearchInput struct {
	Query string `json:"query" jsonschema:"required"`
}

type taskIDInput struct {
	TaskID int64 `json:"task_id" jsonschema:"required"`
}

type taskUpdateInput struct {
	TaskID           int64   `json:"task_id" jsonschema:"required"`
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	ClearDescription bool    `json:"clear_description,omitempty"`
	IsImportant      *bool   `json:"is_important,omitempty"`
	DeadlineAt       string  `json:"deadline_at,omitempty"`
	ClearDeadline    bool    `json:"clear_deadline,omitempty"`
	Completed        *bool   `json:"completed,omitempty"`
}

type taskUpdateOutput struct {
	Task         queries.TaskDTO `json:"task"`
	Fields       []string        `json:"fields"`
	Reclassified bool            `json:"reclassified"`
}

type taskListOutput struct {
	Count int               `json:"count"`
	Tasks []queries.TaskDTO `json:"tasks"`
}

func registerTaskTools(srv *mcp.Server, t *toolset) {
	srv.Tool("task.create").
		Description("Create a task. A deadline less than 72 hours away makes it urgent; without one, is_urgent decides.").
		Handler(timed(t, "task.create", t.createTask))

	srv.Tool("task.get").
		Description("Get a task by id").
		Handler(timed(t, "task.get", t.getTask))

	srv.Tool("task.list").
		Description("List tasks, optionally filtered by quadrant (Q1-Q4) and status (pending, completed)").
		Handler(timed(t, "task.list", t.listTasks))

	srv.Tool("task.search").
		Description("Find tasks whose title or description contains the query, ignoring case").
		Handler(timed(t, "task.search", t.searchTasks))

	srv.Tool("task.update").
		Description("Change some fields of a task. Changing importance or the deadline reclassifies it.").
		Handler(timed(t, "task.update", t.updateTask))

	srv.Tool("task.complete").
		Description("Mark a task as complete").
		Handler(timed(t, "task.complete", t.completeTask))

	srv.Tool("task.delete").
		Description("Delete a task").
		Handler(timed(t, "task.delete", t.deleteTask))
}

func (t *toolset) createTask(ctx context.Context, input taskCreateInput) (*queries.TaskDTO, error) {
	if t.app.CreateTaskHandler == nil {
		return nil, errNoDatabase
	}
	deadline, err := parseDeadline(input.DeadlineAt)
	if err != nil {
		return nil, err
	}
	return t.app.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
		Title:       input.Title,
		Description: input.Description,
		IsImportant: input.IsImportant,
		IsUrgent:    input.IsUrgent,
		DeadlineAt:  deadline,
	})
}

func (t *toolset) getTask(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	if t.app.GetTaskHandler == nil {
		return nil, errNoDatabase
	}
	return t.app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{TaskID: input.TaskID})
}

func (t *toolset) listTasks(ctx context.Context, input taskListInput) (*taskListOutput, error) {
	if t.app.ListTasksHandler == nil {
		return nil, errNoDatabase
	}
	tasks, err := t.app.ListTasksHandler.Handle(ctx, queries.ListTasksQuery{
		Quadrant: input.Quadrant,
		Status:   input.Status,
	})
	if err != nil {
		return nil, err
	}
	return &taskListOutput{Count: len(tasks), Tasks: tasks}, nil
}

func (t *toolset) searchTasks(ctx context.Context, input taskSearchInput) (*taskListOutput, error) {
	if t.app.SearchTasksHandler == nil {
		return nil, errNoDatabase
	}
	tasks, err := t.app.SearchTasksHandler.Handle(ctx, queries.SearchTasksQuery{Query: input.Query})
	if err != nil {
		return nil, err
	}
	return &taskListOutput{Count: len(tasks), Tasks: tasks}, nil
}

func (t *toolset) updateTask(ctx context.Context, input taskUpdateInput) (*taskUpdateOutput, error) {
	if t.app.UpdateTaskHandler == nil {
		return nil, errNoDatabase
	}
	deadline, err := parseDeadline(input.DeadlineAt)
	if err != nil {
		return nil, err
	}

	result, err := t.app.UpdateTaskHandler.Handle(ctx, commands.UpdateTaskCommand{
		TaskID: input.TaskID,
		Patch: task.Patch{
			Title:            input.Title,
			Description:      input.Description,
			ClearDescription: input.ClearDescription,
			IsImportant:      input.IsImportant,
			DeadlineAt:       deadline,
			ClearDeadline:    input.ClearDeadline,
			Completed:        input.Completed,
		},
	})
	if err != nil {
		return nil, err
	}
	return &taskUpdateOutput{
		Task:         result.Task,
		Fields:       result.Fields,
		Reclassified: result.Reclassified,
	}, nil
}

func (t *toolset) completeTask(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	if t.app.CompleteTaskHandler == nil {
		return nil, errNoDatabase
	}
	return t.app.CompleteTaskHandler.Handle(ctx, commands.CompleteTaskCommand{TaskID: input.TaskID})
}

func (t *toolset) deleteTask(ctx context.Context, input taskIDInput) (map[string]any, error) {
	if t.app.DeleteTaskHandler == nil {
		return nil, errNoDatabase
	}
	if err := t.app.DeleteTaskHandler.Handle(ctx, commands.DeleteTaskCommand{TaskID: input.TaskID}); err != nil {
		return nil, err
	}
	return map[string]any{"task_id": input.TaskID, "deleted": true}, nil
}
