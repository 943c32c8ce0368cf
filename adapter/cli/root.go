package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/quadra/pkg/observability"
	"github.com/spf13/cobra"
)

// StandaloneAnnotation marks commands that build their own dependencies
// instead of using the shared App.
const StandaloneAnnotation = "quadra/standalone"

// Bootstrap builds the App for a config file path. An empty path means
// defaults, .env and environment only.
type Bootstrap func(ctx context.Context, configPath string, verbose bool) (*App, error)

var (
	cfgFile   string
	verbose   bool
	logger    *slog.Logger
	bootstrap Bootstrap
)

type commandContext struct {
	correlationID string
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quadra",
	Short: "Quadra - Eisenhower matrix task manager",
	Long: `Quadra sorts your tasks into the four quadrants of the Eisenhower matrix:

  Q1 Do        important and urgent
  Q2 Schedule  important, not urgent
  Q3 Delegate  urgent, not important
  Q4 Eliminate neither

A task is urgent when its deadline is less than 72 hours away.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger == nil {
			logger = slog.Default()
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = observability.WithCorrelationID(ctx, "")
		info := commandContext{
			correlationID: observability.CorrelationIDFromContext(ctx),
			startedAt:     time.Now(),
		}
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.DebugContext(ctx, "command start", "command", cmd.CommandPath())

		if app != nil || bootstrap == nil || isStandalone(cmd) {
			return nil
		}
		built, err := bootstrap(ctx, cfgFile, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		app = built
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger == nil {
			logger = slog.Default()
		}

		// Relay the events this command recorded before the process exits.
		if app != nil && !isStandalone(cmd) {
			if err := app.Flush(cmd.Context()); err != nil {
				logger.WarnContext(cmd.Context(), "failed to relay outbox", "error", err)
			}
		}

		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return nil
		}
		logger.DebugContext(cmd.Context(), "command end",
			"command", cmd.CommandPath(),
			observability.DurationKey, time.Since(info.startedAt).Milliseconds(),
		)
		return nil
	},
}

func isStandalone(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[StandaloneAnnotation] == "true" {
			return true
		}
	}
	return false
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if app != nil {
		app.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// SetBootstrap sets how the App is built once flags are parsed.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// ConfigPath returns the value of the --config flag.
func ConfigPath() string {
	return cfgFile
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}
