package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	dserrors "github.com/systmms/gcptoolkit/internal/errors"
	"github.com/systmms/gcptoolkit/internal/resolve"
	"github.com/systmms/gcptoolkit/internal/validation"
)

// NewSecretsCommand creates the parent 'secrets' command
func NewSecretsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Read and write secret values",
		Long: `Read and write secrets in Google Cloud Secret Manager.

Examples:
  gcptoolkit secrets get DATABASE_PASSWORD
  gcptoolkit secrets get API_KEY --project-id my-project -q
  echo -n "s3cr3t" | gcptoolkit secrets set API_KEY -`,
		RunE: requireSubcommand,
	}

	cmd.AddCommand(
		NewSecretsGetCommand(app),
		NewSecretsSetCommand(app),
	)

	return cmd
}

// NewSecretsGetCommand creates 'secrets get'
func NewSecretsGetCommand(app *App) *cobra.Command {
	var (
		projectID  string
		quiet      bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Get a single secret value",
		Long: `Fetch the latest version of a secret from Google Cloud Secret Manager.

If Secret Manager can't answer (missing secret, no access, no credentials, no
network, no project configured), the environment variable named NAME is used
instead and a warning is printed to stderr.

Names may contain letters, numbers, underscores and hyphens.

Examples:
  # Human-readable
  gcptoolkit secrets get DATABASE_PASSWORD

  # Only the value, for scripts
  export DB_PASS=$(gcptoolkit secrets get DATABASE_PASSWORD -q)

  # With metadata
  gcptoolkit secrets get API_KEY --json`,
		Args: argsBetween(1, 1, "NAME"),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			app.Logger.SetQuiet(quiet)

			if err := validation.ValidateName(name); err != nil {
				return err
			}

			resolver, closeStore := app.newResolver(projectID)
			defer closeStore()

			secret, err := resolver.Resolve(cmd.Context(), name)
			if err != nil {
				return err
			}

			return writeSecret(cmd.OutOrStdout(), secret, quiet, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "GCP project (default: $GCP_PROJECT or gcp.project_id from config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the value and suppress warnings")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with metadata")

	return cmd
}

func writeSecret(w io.Writer, s resolve.Secret, quiet, jsonOutput bool) error {
	switch {
	case jsonOutput:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case quiet:
		fmt.Fprintln(w, s.Value)
	default:
		fmt.Fprintf(w, "Secret '%s': %s\n", s.Name, s.Value)
	}
	return nil
}

// NewSecretsSetCommand creates 'secrets set'
func NewSecretsSetCommand(app *App) *cobra.Command {
	var (
		projectID string
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "set NAME [VALUE|-]",
		Short: "Store a new secret version",
		Long: `Add a new version to a secret, creating the secret (with automatic
replication) if it does not exist yet.

The value is read from stdin when VALUE is "-" or omitted. A single trailing
newline is stripped from stdin input. Empty values are rejected.

There is no environment fallback for writes: if Secret Manager fails, the
command fails.

Examples:
  gcptoolkit secrets set API_KEY abc123
  gcptoolkit secrets set TLS_KEY - < key.pem`,
		Args: argsBetween(1, 2, "NAME"),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			app.Logger.SetQuiet(quiet)

			if err := validation.ValidateName(name); err != nil {
				return err
			}

			var value string
			if len(args) == 2 && args[1] != "-" {
				value = args[1]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read value from stdin: %w", err)
				}
				value = trimNewline(string(data))
			}
			if err := validation.ValidateValue(value); err != nil {
				return err
			}

			resolver, closeStore := app.newResolver(projectID)
			defer closeStore()

			version, err := resolver.Set(cmd.Context(), name, value)
			if err != nil {
				if dserrors.IsUsage(err) {
					return err
				}
				return dserrors.StoreError("write", err)
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Secret '%s' stored (version %s)\n", name, version)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "GCP project (default: $GCP_PROJECT or gcp.project_id from config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress output")

	return cmd
}

func trimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
