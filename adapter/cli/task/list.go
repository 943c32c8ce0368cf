package task

import (
	"fmt"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/spf13/cobra"
)

var (
	quadrant      string
	status        string
	showCompleted bool
	showPending   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks in id order, optionally narrowed by quadrant and status.

Examples:
  quadra task list
  quadra task list --quadrant Q1
  quadra task list --pending
  quadra task list -q Q2 --status completed`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		// Build query
		query := queries.ListTasksQuery{
			Quadrant: quadrant,
			Status:   status,
		}
		switch {
		case showCompleted && showPending:
			return fmt.Errorf("--completed and --pending are mutually exclusive")
		case showCompleted:
			query.Status = "completed"
		case showPending:
			query.Status = "pending"
		}

		tasks, err := app.ListTasksHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		cli.PrintTaskList(cmd.OutOrStdout(), "Tasks", tasks)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&quadrant, "quadrant", "q", "", "filter by quadrant (Q1, Q2, Q3, Q4)")
	listCmd.Flags().StringVarP(&status, "status", "s", "", "filter by status (pending, completed)")
	listCmd.Flags().BoolVar(&showCompleted, "completed", false, "show only completed tasks")
	listCmd.Flags().BoolVar(&showPending, "pending", false, "show only pending tasks")
}
