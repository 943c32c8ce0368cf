package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/report"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

type matrixViewInput struct {
	IncludeCompleted bool `json:"include_completed,omitempty"`
}

type deadlinesOutput struct {
	Count     int                    `json:"count"`
	Deadlines []report.DeadlineEntry `json:"deadlines"`
}

func registerMatrixTools(srv *mcp.Server, t *toolset) {
	srv.Tool("matrix.view").
		Description("Tasks grouped by quadrant: Q1 do, Q2 schedule, Q3 delegate, Q4 eliminate").
		Handler(timed(t, "matrix.view", t.matrixView))

	srv.Tool("matrix.stats").
		Description("Task counts in total, per quadrant and per status").
		Handler(timed(t, "matrix.stats", t.stats))

	srv.Tool("matrix.deadlines").
		Description("Pending tasks with a deadline and the whole days left until it").
		Handler(timed(t, "matrix.deadlines", t.deadlines))
}

func (t *toolset) matrixView(ctx context.Context, input matrixViewInput) (map[string][]queries.TaskDTO, error) {
	if t.app.ListTasksHandler == nil {
		return nil, errNoDatabase
	}
	query := queries.ListTasksQuery{Status: task.StatusPending.String()}
	if input.IncludeCompleted {
		query.Status = ""
	}
	tasks, err := t.app.ListTasksHandler.Handle(ctx, query)
	if err != nil {
		return nil, err
	}
	return groupByQuadrant(tasks), nil
}

func (t *toolset) stats(ctx context.Context, _ struct{}) (report.Stats, error) {
	if t.app.GetStatsHandler == nil {
		return report.Stats{}, errNoDatabase
	}
	return t.app.GetStatsHandler.Handle(ctx, queries.GetStatsQuery{})
}

func (t *toolset) deadlines(ctx context.Context, _ struct{}) (*deadlinesOutput, error) {
	if t.app.UpcomingDeadlinesHandler == nil {
		return nil, errNoDatabase
	}
	entries, err := t.app.UpcomingDeadlinesHandler.Handle(ctx, queries.UpcomingDeadlinesQuery{})
	if err != nil {
		return nil, err
	}
	return &deadlinesOutput{Count: len(entries), Deadlines: entries}, nil
}
