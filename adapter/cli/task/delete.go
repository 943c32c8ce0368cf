package task

import (
	"fmt"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Long: `Delete a task permanently.

Examples:
  quadra task delete 12`,
	Aliases: []string{"rm"},
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

		if err := app.DeleteTaskHandler.Handle(cmd.Context(), commands.DeleteTaskCommand{TaskID: taskID}); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Task deleted: #%d\n", taskID)
		return nil
	},
}
