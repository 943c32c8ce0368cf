package task

import (
	"fmt"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Long: `Display every field of a task.

Examples:
  quadra task show 12`,
	Aliases: []string{"get", "view"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		taskID, err := task.ParseID(args[0])
		if err != nil {
			return err
		}

		found, err := app.GetTaskHandler.Handle(cmd.Context(), queries.GetTaskQuery{TaskID: taskID})
		if err != nil {
			return fmt.Errorf("failed to get task: %w", err)
		}

		cli.PrintTask(cmd.OutOrStdout(), *found)
		return nil
	},
}
