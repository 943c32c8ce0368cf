package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/felixgeelhaar/quadra/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the backing services",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		if app.Health == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}

		health := app.Health.GetOverallHealth(cmd.Context())
		names := make([]string, 0, len(health.Checks))
		for name := range health.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status: %s\n", health.Status)
		for _, name := range names {
			check := health.Checks[name]
			fmt.Fprintf(out, "  %-10s %s", name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(out, " (%s)", check.Message)
			}
			fmt.Fprintln(out)
		}

		if health.Status == observability.HealthStatusUnhealthy {
			return errors.New("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
