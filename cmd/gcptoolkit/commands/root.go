package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	dserrors "github.com/systmms/gcptoolkit/internal/errors"
	"github.com/systmms/gcptoolkit/internal/logging"
	"github.com/systmms/gcptoolkit/internal/metrics"
	"github.com/systmms/gcptoolkit/internal/providers"
)

// BuildInfo is stamped into the binary by the release build.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}

// App carries the state shared by every command in one invocation.
type App struct {
	// Global flags
	ConfigPath      string
	Debug           bool
	NoColor         bool
	MetricsTextfile string

	Logger  *logging.Logger
	Metrics *metrics.Metrics

	// API replaces the Secret Manager SDK client when set.
	API providers.SecretManagerAPI
	// LookupEnv replaces os.LookupEnv for the fallback step when set.
	LookupEnv func(string) (string, bool)
}

// NewApp returns an App with a stderr logger and a fresh metrics registry.
func NewApp() *App {
	return &App{
		Logger:  logging.New(false, false),
		Metrics: metrics.New(),
	}
}

// NewRootCommand builds the gcptoolkit command tree.
func NewRootCommand(app *App, info BuildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gcptoolkit",
		Short: "Read and write Google Cloud Secret Manager secrets",
		Long: `gcptoolkit fetches secrets from Google Cloud Secret Manager, falling back to
an environment variable of the same name when Secret Manager can't answer.

Exit codes: 0 success, 1 runtime error, 2 usage error.`,
		Version:       info.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logging.New(app.Debug, app.NoColor)
			logger.SetOutput(cmd.ErrOrStderr())
			app.Logger = logger
		},
		RunE: requireSubcommand,
	}

	rootCmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file path (default: $GCPTOOLKIT_CONFIG, saved path, or ~/.config/gcptoolkit/config.yml)")
	rootCmd.PersistentFlags().BoolVar(&app.NoColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&app.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&app.MetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return dserrors.UsageError{
			Message:    err.Error(),
			Suggestion: fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()),
			Err:        err,
		}
	})

	rootCmd.AddCommand(
		NewSecretsCommand(app),
		NewConfigCommand(app),
		NewVersionCommand(info),
		NewCompletionCommand(),
	)

	return rootCmd
}
