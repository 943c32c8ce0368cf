package task

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/quadra/adapter/cli"
	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search tasks by title and description",
	Long: `Find tasks whose title or description contains the query, ignoring case.
The query needs at least 2 characters.

Examples:
  quadra task search budget
  quadra task search "quarterly report"`,
	Aliases: []string{"find"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		tasks, err := app.SearchTasksHandler.Handle(cmd.Context(), queries.SearchTasksQuery{Query: query})
		if err != nil {
			return fmt.Errorf("failed to search tasks: %w", err)
		}

		cli.PrintTaskList(cmd.OutOrStdout(), fmt.Sprintf("Matches for %q", query), tasks)
		return nil
	},
}
