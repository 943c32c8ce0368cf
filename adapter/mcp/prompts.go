package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common matrix workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}

	srv.Prompt("daily_triage").
		Description("Work through today's tasks quadrant by quadrant and decide what to do, schedule, delegate or drop.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Daily Triage", `Help me triage my tasks for today. Please:

1. Read the matrix from the quadra://matrix resource
2. Read upcoming deadlines from the quadra://deadlines resource

Then:
- Q1 (do): order these by deadline and tell me what to start with
- Q2 (schedule): pick at most two I should block time for this week
- Q3 (delegate): suggest who or what could take each one over
- Q4 (eliminate): list candidates to delete with task.delete

Flag any deadline that has already passed. Use task.update when a task
is in the wrong quadrant and task.complete for anything already done.`), nil
		})

	srv.Prompt("weekly_review").
		Description("Review the week: what got done, what slipped, and how the matrix is balanced.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Weekly Review", `Let's review my week. Please:

1. Read quadra://stats for the overall counts
2. Read quadra://tasks for every task, completed ones included
3. Read quadra://deadlines for what is coming up

Help me answer:
- How many tasks did I complete, and in which quadrants?
- Is Q1 growing? That usually means Q2 work is being neglected.
- Which Q4 tasks have been sitting around and can go?
- What Q2 tasks would prevent next week's fires?

Finish with three concrete actions for next week.`), nil
		})

	srv.Prompt("classify_task").
		Description("Decide how important and urgent a task is before adding it.").
		Argument("task_description", "What the task is about", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			desc := args["task_description"]
			if desc == "" {
				desc = "[Please describe the task]"
			}
			return userPrompt("Classify Task", fmt.Sprintf(`Help me place this task on the Eisenhower matrix:

**Task:** %s

Ask me at most two questions if something is unclear, then decide:
- Is it important? Does it move a goal that matters to me forward?
- Does it have a deadline? Anything due in less than 72 hours counts as urgent.

Create it with task.create, passing is_important and deadline_at, and tell
me which quadrant it landed in.`, desc)), nil
		})

	srv.Prompt("quick_capture").
		Description("Capture a thought as a task without deciding everything now.").
		Argument("content", "What you want to capture", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			content := args["content"]
			if content == "" {
				content = "[What do you want to capture?]"
			}
			return userPrompt("Quick Capture", fmt.Sprintf(`Capture this as a task with task.quick_add:

%s

Add "!" if it sounds important and a date word such as "tomorrow" or
"friday" if it mentions a deadline. Reply with the created task's id and
quadrant only.`, content)), nil
		})

	return nil
}

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: string(mcp.RoleUser),
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
