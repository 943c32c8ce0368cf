package task

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/spf13/cobra"
)

var (
	updateTitle       string
	updateDescription string
	clearDescription  bool
	updateImportant   bool
	updateDeadline    string
	clearDeadline     bool
	updateCompleted   bool
)

var updateCmd = &cobra.Command{
	Use:   "update [task-id]",
	Short: "Update a task",
	Long: `Change only the fields that are given. Changing importance or the
deadline moves the task to its new quadrant.

Examples:
  quadra task update 12 --title "New title"
  quadra task update 12 --important=false
  quadra task update 12 --deadline 2026-12-31
  quadra task update 12 --clear-deadline --clear-description
  quadra task update 12 --completed=false`,
	Aliases: []string{"edit", "modify"},
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

		patch, err := buildPatch(cmd)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return errors.New("nothing to update; pass at least one field flag")
		}

		result, err := app.UpdateTaskHandler.Handle(cmd.Context(), commands.UpdateTaskCommand{
			TaskID: taskID,
			Patch:  patch,
		})
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task updated: #%d\n", result.Task.ID)
		if result.Reclassified {
			fmt.Fprintf(out, "  quadrant: %s\n", cli.QuadrantBadge(result.Task.Quadrant))
		}
		return nil
	},
}

func buildPatch(cmd *cobra.Command) (task.Patch, error) {
	flags := cmd.Flags()
	var patch task.Patch

	if flags.Changed("title") {
		patch.Title = &updateTitle
	}
	if flags.Changed("description") {
		patch.Description = &updateDescription
	}
	patch.ClearDescription = clearDescription
	if flags.Changed("important") {
		patch.IsImportant = &updateImportant
	}
	if flags.Changed("deadline") {
		parsed, err := cli.ParseDeadline(updateDeadline)
		if err != nil {
			return task.Patch{}, err
		}
		patch.DeadlineAt = &parsed
	}
	patch.ClearDeadline = clearDeadline
	if flags.Changed("completed") {
		patch.Completed = &updateCompleted
	}

	return patch, nil
}

func init() {
	updateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "new title")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "new description")
	updateCmd.Flags().BoolVar(&clearDescription, "clear-description", false, "remove the description")
	updateCmd.Flags().BoolVarP(&updateImportant, "important", "i", false, "set importance")
	updateCmd.Flags().StringVar(&updateDeadline, "deadline", "", "new deadline (YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339)")
	updateCmd.Flags().BoolVar(&clearDeadline, "clear-deadline", false, "remove the deadline")
	updateCmd.Flags().BoolVar(&updateCompleted, "completed", false, "set completion")
	updateCmd.MarkFlagsMutuallyExclusive("description", "clear-description")
	updateCmd.MarkFlagsMutuallyExclusive("deadline", "clear-deadline")
}
