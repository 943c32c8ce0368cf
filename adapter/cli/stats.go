package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/report"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	Long: `Display task counts in total, per quadrant and per status.

Examples:
  quadra stats`,
	Aliases: []string{"summary"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		stats, err := app.GetStatsHandler.Handle(cmd.Context(), queries.GetStatsQuery{})
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		PrintStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

var deadlinesCmd = &cobra.Command{
	Use:   "deadlines",
	Short: "List pending tasks that have a deadline",
	Long: `List every pending task with a deadline and the whole days left until it.
Negative values mean the deadline has passed.

Examples:
  quadra deadlines`,
	Aliases: []string{"due"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		entries, err := app.UpcomingDeadlinesHandler.Handle(cmd.Context(), queries.UpcomingDeadlinesQuery{})
		if err != nil {
			return fmt.Errorf("failed to get deadlines: %w", err)
		}

		PrintDeadlines(cmd.OutOrStdout(), entries)
		return nil
	},
}

// PrintStats writes the stats summary.
func PrintStats(w io.Writer, stats report.Stats) {
	fmt.Fprintln(w, titleStyle.Render("Task Stats"))
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "  Total:     %d\n", stats.Total)
	fmt.Fprintf(w, "  Pending:   %d\n", stats.ByStatus.Pending)
	fmt.Fprintf(w, "  Completed: %d\n", stats.ByStatus.Completed)
	fmt.Fprintln(w)
	for _, q := range task.AllQuadrants() {
		fmt.Fprintf(w, "  %-24s %d\n", QuadrantBadge(q.String()), stats.ByQuadrant[q])
	}
}

// PrintDeadlines writes one line per deadline entry.
func PrintDeadlines(w io.Writer, entries []report.DeadlineEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No upcoming deadlines.")
		return
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Deadlines (%d)", len(entries))))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, e := range entries {
		fmt.Fprintf(w, "#%d %s  %s  %s\n", e.TaskID, e.Title, FormatTime(e.DeadlineAt), daysLabel(e.DaysRemaining))
	}
}

func daysLabel(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("[OVERDUE %dd]", -days)
	case days == 0:
		return "[TODAY]"
	case days == 1:
		return "[1 day]"
	default:
		return fmt.Sprintf("[%d days]", days)
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(deadlinesCmd)
}
