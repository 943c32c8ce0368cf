package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// ErrNotInitialized is returned by commands that run without an App.
var ErrNotInitialized = errors.New("application not initialized")

var quadrantColors = map[string]lipgloss.Color{
	"Q1": lipgloss.Color("9"),
	"Q2": lipgloss.Color("12"),
	"Q3": lipgloss.Color("11"),
	"Q4": lipgloss.Color("8"),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// RequireApp returns the global App or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// QuadrantBadge renders a quadrant name with its action label, e.g. "Q1 Do first".
func QuadrantBadge(quadrant string) string {
	label := quadrant
	if q, err := task.ParseQuadrant(quadrant); err == nil {
		label = q.String() + " " + q.Label()
	}
	return lipgloss.NewStyle().Foreground(quadrantColors[quadrant]).Bold(true).Render(label)
}

// StatusIcon marks completed tasks.
func StatusIcon(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// PrintTaskLine writes a one-line summary of t.
func PrintTaskLine(w io.Writer, t queries.TaskDTO) {
	fmt.Fprintf(w, "%s #%d %s  %s", StatusIcon(t.Completed), t.ID, t.Title, QuadrantBadge(t.Quadrant))
	if t.DeadlineAt != nil && !t.Completed {
		fmt.Fprintf(w, "  %s", faintStyle.Render("due "+FormatTime(*t.DeadlineAt)))
	}
	fmt.Fprintln(w)
}

// PrintTaskList writes a header and one line per task.
func PrintTaskList(w io.Writer, heading string, tasks []queries.TaskDTO) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%d)", heading, len(tasks))))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, t := range tasks {
		PrintTaskLine(w, t)
	}
}

// PrintTask writes every field of t.
func PrintTask(w io.Writer, t queries.TaskDTO) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Task #%d", t.ID)))
	fmt.Fprintf(w, "  title:     %s\n", t.Title)
	if t.Description != nil {
		fmt.Fprintf(w, "  desc:      %s\n", *t.Description)
	}
	fmt.Fprintf(w, "  quadrant:  %s\n", QuadrantBadge(t.Quadrant))
	fmt.Fprintf(w, "  important: %t\n", t.IsImportant)
	fmt.Fprintf(w, "  urgent:    %t\n", t.IsUrgent)
	if t.DeadlineAt != nil {
		fmt.Fprintf(w, "  deadline:  %s\n", FormatTime(*t.DeadlineAt))
	}
	fmt.Fprintf(w, "  status:    %s\n", task.StatusFromCompleted(t.Completed))
	fmt.Fprintf(w, "  created:   %s\n", FormatTime(t.CreatedAt))
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "  completed: %s\n", FormatTime(*t.CompletedAt))
	}
}

// FormatTime renders t in local time at minute precision.
func FormatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// ParseDeadline accepts RFC 3339, "YYYY-MM-DD HH:MM" or "YYYY-MM-DD" (end of
// that day) in local time.
func ParseDeadline(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t.Add(24*time.Hour - time.Second), nil
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q (use YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339)", value)
}
