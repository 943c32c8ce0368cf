package task

import (
	"fmt"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete [task-id]",
	Short: "Mark a task as complete",
	Long: `Mark a task as complete by its ID. Completing a task again records
a new completion time.

Examples:
  quadra task complete 12`,
	Aliases: []string{"done"},
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

		completed, err := app.CompleteTaskHandler.Handle(cmd.Context(), commands.CompleteTaskCommand{TaskID: taskID})
		if err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Task completed: #%d %s\n", completed.ID, completed.Title)
		return nil
	},
}
