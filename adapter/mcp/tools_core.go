package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

type quickAddInput struct {
	Text string `json:"text" jsonschema:"required"`
}

type healthOutput struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func registerCoreTools(srv *mcp.Server, t *toolset) {
	srv.Tool("cli.health").
		Description("Check the backing services").
		Handler(timed(t, "cli.health", t.health))

	srv.Tool("cli.version").
		Description("Get version information").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			return map[string]string{
				"version": cli.Version,
				"commit":  cli.Commit,
			}, nil
		})

	srv.Tool("task.quick_add").
		Description(`Create a task from a short phrase. "!" marks it important, "!!" important and urgent, ` +
			`#important and #urgent work too; today, tomorrow, next week, a weekday or YYYY-MM-DD set the deadline.`).
		Handler(timed(t, "task.quick_add", t.quickAdd))
}

func (t *toolset) health(ctx context.Context, _ struct{}) (*healthOutput, error) {
	if t.app.Health == nil {
		return &healthOutput{Status: string(observability.HealthStatusHealthy)}, nil
	}

	overall := t.app.Health.GetOverallHealth(ctx)
	out := &healthOutput{
		Status: string(overall.Status),
		Checks: make(map[string]string, len(overall.Checks)),
	}
	for name, check := range overall.Checks {
		out.Checks[name] = string(check.Status)
	}
	return out, nil
}

func (t *toolset) quickAdd(ctx context.Context, input quickAddInput) (*queries.TaskDTO, error) {
	if t.app.CreateTaskHandler == nil {
		return nil, errNoDatabase
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.New("text is required")
	}

	parsed := cli.ParseQuickAdd(input.Text, time.Now())
	return t.app.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
		Title:       parsed.Title,
		IsImportant: parsed.Important,
		IsUrgent:    parsed.Urgent,
		DeadlineAt:  parsed.Deadline,
	})
}
