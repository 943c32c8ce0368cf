package task

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/spf13/cobra"
)

var (
	important   bool
	urgent      bool
	description string
	deadline    string
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new task",
	Long: `Create a new task. The quadrant follows from importance and urgency.
With a deadline, urgency is derived from it (less than 72 hours away).

Examples:
  quadra task create "Fix production outage" --important --urgent
  quadra task create "Plan next quarter" -i
  quadra task create "Renew passport" -i --deadline 2026-03-01
  quadra task create "Reply to newsletter" --description "low effort"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		// Build command
		createCmd := commands.CreateTaskCommand{
			Title:       args[0],
			IsImportant: important,
		}
		if cmd.Flags().Changed("description") {
			createCmd.Description = &description
		}
		if cmd.Flags().Changed("urgent") {
			createCmd.IsUrgent = &urgent
		}
		if deadline != "" {
			parsed, err := cli.ParseDeadline(deadline)
			if err != nil {
				return err
			}
			createCmd.DeadlineAt = &parsed
		}

		// Execute command
		created, err := app.CreateTaskHandler.Handle(cmd.Context(), createCmd)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task created: #%d\n", created.ID)
		fmt.Fprintf(out, "  quadrant: %s\n", cli.QuadrantBadge(created.Quadrant))
		if created.DeadlineAt != nil {
			fmt.Fprintf(out, "  deadline: %s (%s left)\n", cli.FormatTime(*created.DeadlineAt), time.Until(*created.DeadlineAt).Round(time.Minute))
		}

		return nil
	},
}

func init() {
	createCmd.Flags().BoolVarP(&important, "important", "i", false, "task is important")
	createCmd.Flags().BoolVarP(&urgent, "urgent", "u", false, "task is urgent (ignored when a deadline is given)")
	createCmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	createCmd.Flags().StringVar(&deadline, "deadline", "", "deadline (YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339)")
}
