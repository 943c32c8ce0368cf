package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/spf13/cobra"
)

var (
	matrixAll      bool
	matrixWidth    int
	matrixMaxItems int
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show tasks on the Eisenhower matrix",
	Long: `Render pending tasks as a 2x2 grid:

            urgent        not urgent
  important    Q1 Do         Q2 Schedule
  otherwise    Q3 Delegate   Q4 Eliminate

Examples:
  quadra matrix
  quadra matrix --all --width 40`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		query := queries.ListTasksQuery{Status: task.StatusPending.String()}
		if matrixAll {
			query.Status = ""
		}
		tasks, err := app.ListTasksHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), RenderMatrix(tasks, matrixWidth, matrixMaxItems))
		return nil
	},
}

// RenderMatrix lays tasks out in four bordered cells. width is the width of
// one cell inside its border; at most maxItems tasks are listed per cell.
func RenderMatrix(tasks []queries.TaskDTO, width, maxItems int) string {
	if width < 20 {
		width = 20
	}
	if maxItems <= 0 {
		maxItems = 10
	}

	byQuadrant := make(map[string][]queries.TaskDTO, 4)
	for _, t := range tasks {
		byQuadrant[t.Quadrant] = append(byQuadrant[t.Quadrant], t)
	}

	cells := make(map[task.Quadrant]string, 4)
	for _, q := range task.AllQuadrants() {
		cells[q] = renderCell(q, byQuadrant[q.String()], width, maxItems)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cells[task.Q1], cells[task.Q2]),
		lipgloss.JoinHorizontal(lipgloss.Top, cells[task.Q3], cells[task.Q4]),
	)
}

func renderCell(q task.Quadrant, tasks []queries.TaskDTO, width, maxItems int) string {
	var b strings.Builder
	b.WriteString(QuadrantBadge(q.String()))
	b.WriteString(faintStyle.Render(fmt.Sprintf(" (%d)", len(tasks))))

	for i, t := range tasks {
		if i == maxItems {
			b.WriteString(faintStyle.Render(fmt.Sprintf("\n… %d more", len(tasks)-maxItems)))
			break
		}
		b.WriteString("\n")
		b.WriteString(truncate(fmt.Sprintf("%s #%d %s", StatusIcon(t.Completed), t.ID, t.Title), width-2))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(quadrantColors[q.String()]).
		Padding(0, 1).
		Width(width).
		Render(b.String())
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func init() {
	matrixCmd.Flags().BoolVarP(&matrixAll, "all", "a", false, "include completed tasks")
	matrixCmd.Flags().IntVarP(&matrixWidth, "width", "w", 34, "width of one quadrant")
	matrixCmd.Flags().IntVarP(&matrixMaxItems, "max", "n", 10, "max tasks listed per quadrant")
	rootCmd.AddCommand(matrixCmd)
}
