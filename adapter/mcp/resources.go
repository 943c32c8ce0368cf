package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// RegisterResources registers MCP resources that expose the task matrix.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}
	t := newToolset(deps)

	jsonResource(srv, "quadra://tasks", "Tasks", "Every task, completed ones included",
		func(ctx context.Context) (any, error) {
			return t.listTasks(ctx, taskListInput{})
		})

	jsonResource(srv, "quadra://tasks/pending", "Pending Tasks", "Tasks that are not completed yet",
		func(ctx context.Context) (any, error) {
			return t.listTasks(ctx, taskListInput{Status: task.StatusPending.String()})
		})

	for _, q := range task.AllQuadrants() {
		jsonResource(srv, "quadra://tasks/quadrant/"+strings.ToLower(q.String()),
			q.String()+" "+q.Label(), "Pending tasks in quadrant "+q.String(),
			func(ctx context.Context) (any, error) {
				return t.listTasks(ctx, taskListInput{Quadrant: q.String(), Status: task.StatusPending.String()})
			})
	}

	jsonResource(srv, "quadra://matrix", "Matrix", "Pending tasks grouped by quadrant",
		func(ctx context.Context) (any, error) {
			return t.matrixView(ctx, matrixViewInput{})
		})

	jsonResource(srv, "quadra://stats", "Stats", "Task counts in total, per quadrant and per status",
		func(ctx context.Context) (any, error) {
			return t.stats(ctx, struct{}{})
		})

	jsonResource(srv, "quadra://deadlines", "Deadlines", "Pending tasks with a deadline",
		func(ctx context.Context) (any, error) {
			return t.deadlines(ctx, struct{}{})
		})

	return nil
}

func jsonResource(srv *mcp.Server, uri, name, description string, load func(ctx context.Context) (any, error)) {
	srv.Resource(uri).
		Name(name).
		Description(description).
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return renderJSON(ctx, uri, load)
		})
}

func renderJSON(ctx context.Context, uri string, load func(ctx context.Context) (any, error)) (*mcp.ResourceContent, error) {
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}

	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}

