package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/gcptoolkit/internal/config"
	dserrors "github.com/systmms/gcptoolkit/internal/errors"
	"github.com/systmms/gcptoolkit/internal/providers"
	"github.com/systmms/gcptoolkit/internal/resolve"
)

// requireSubcommand is the RunE of group commands. Bare invocation prints
// help and fails as a usage error; so does an unknown subcommand.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return dserrors.UsageError{
			Message:    fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath()),
			Suggestion: fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()),
		}
	}
	_ = cmd.Help()
	return dserrors.UsageError{Message: fmt.Sprintf("%s requires a subcommand", cmd.CommandPath())}
}

// argsBetween accepts between lo and hi positional arguments. Violations
// are usage errors.
func argsBetween(lo, hi int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) >= lo && len(args) <= hi {
			return nil
		}
		var msg string
		switch {
		case len(args) < lo:
			msg = fmt.Sprintf("missing argument: %s", usage)
		default:
			msg = fmt.Sprintf("too many arguments (got %d)", len(args))
		}
		return dserrors.UsageError{
			Message:    msg,
			Suggestion: fmt.Sprintf("Usage: %s", cmd.UseLine()),
		}
	}
}

// newResolver discovers configuration and wires a resolver for one command
// run. The returned close func releases the SDK client.
func (app *App) newResolver(projectID string) (*resolve.Resolver, func()) {
	// A broken config file has already been reported; carry on without it
	// so the environment fallback still works.
	cfg, _ := config.Discover(app.ConfigPath, app.Logger)

	var storeOpts []providers.Option
	if app.API != nil {
		storeOpts = append(storeOpts, providers.WithAPI(app.API))
	}
	store := cfg.SecretManager(projectID, storeOpts...)

	opts := []resolve.Option{
		resolve.WithLogger(app.Logger),
		resolve.WithMetrics(app.Metrics),
	}
	if app.LookupEnv != nil {
		opts = append(opts, resolve.WithEnvLookup(app.LookupEnv))
	}

	return resolve.New(store, opts...), func() {
		if err := store.Close(); err != nil {
			app.Logger.Debug("Failed to close Secret Manager client: %v", err)
		}
	}
}
