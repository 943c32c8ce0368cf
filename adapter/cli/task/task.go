package task

import (
	"github.com/spf13/cobra"
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Create, list, search, update, complete and delete tasks.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(searchCmd)
}
