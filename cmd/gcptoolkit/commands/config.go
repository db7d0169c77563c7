package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/systmms/gcptoolkit/internal/config"
	dserrors "github.com/systmms/gcptoolkit/internal/errors"
	"github.com/systmms/gcptoolkit/internal/preferences"
)

// NewConfigCommand creates the parent 'config' command
func NewConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the gcptoolkit configuration file",
		Long: `Manage where gcptoolkit looks for its configuration file.

The file is chosen in this order:
  1. --config flag
  2. GCPTOOLKIT_CONFIG environment variable
  3. path saved with 'gcptoolkit config set-path'
  4. ~/.config/gcptoolkit/config.yml`,
		RunE: requireSubcommand,
	}

	cmd.AddCommand(
		NewConfigSetPathCommand(app),
		NewConfigShowCommand(app),
		NewConfigClearCommand(app),
		NewConfigInitCommand(app),
	)

	return cmd
}

func openPreferences(app *App) (*preferences.Store, error) {
	prefs, err := preferences.Open(preferences.WithLogger(app.Logger))
	if err != nil {
		return nil, dserrors.UserError{
			Message:    "Failed to open preferences",
			Suggestion: "Set XDG_CONFIG_HOME or HOME so gcptoolkit can store preferences",
			Err:        err,
		}
	}
	return prefs, nil
}

// NewConfigSetPathCommand creates 'config set-path'
func NewConfigSetPathCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-path PATH",
		Short: "Remember a custom config file location",
		Args:  argsBetween(1, 1, "PATH"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(expandHome(args[0]))
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}

			info, err := os.Stat(path)
			if errors.Is(err, os.ErrNotExist) {
				return dserrors.ConfigError{
					Field:      "path",
					Value:      path,
					Message:    "file not found",
					Suggestion: fmt.Sprintf("Create it with 'gcptoolkit config init --path %s'", path),
					Err:        err,
				}
			}
			if err != nil {
				return dserrors.SimplifyError(err)
			}
			if !info.Mode().IsRegular() {
				return dserrors.ConfigError{
					Field:      "path",
					Value:      path,
					Message:    "not a regular file",
					Suggestion: "Point set-path at a config.yml file, not a directory",
				}
			}

			if _, err := config.LoadFile(path); err != nil {
				app.Logger.Warn("%s does not load cleanly yet: %v", path, err)
			}

			prefs, err := openPreferences(app)
			if err != nil {
				return err
			}
			if err := prefs.Set(preferences.KeyConfigPath, path); err != nil {
				return dserrors.SimplifyError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Config path set to %s\n", path)
			return nil
		},
	}
}

// NewConfigShowCommand creates 'config show'
func NewConfigShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show which config file is in effect",
		Args:  argsBetween(0, 0, ""),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			cfg := &config.Config{Path: app.ConfigPath, Logger: app.Logger, Env: env}
			if prefs, err := preferences.Open(preferences.WithLogger(app.Logger)); err == nil {
				cfg.Preferences = prefs
			}

			src, err := cfg.ResolvePath()
			if err != nil {
				return dserrors.SimplifyError(err)
			}

			exists := "no"
			if info, err := os.Stat(src.Path); err == nil && info.Mode().IsRegular() {
				exists = "yes"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", src.Path)
			fmt.Fprintf(out, "Source:      %s\n", src.Source)
			fmt.Fprintf(out, "Exists:      %s\n", exists)
			return nil
		},
	}
}

// NewConfigClearCommand creates 'config clear'
func NewConfigClearCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved config file location",
		Args:  argsBetween(0, 0, ""),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := openPreferences(app)
			if err != nil {
				return err
			}
			removed, err := prefs.Clear(preferences.KeyConfigPath)
			if err != nil {
				return dserrors.SimplifyError(err)
			}

			if removed {
				fmt.Fprintln(cmd.OutOrStdout(), "Custom config path cleared")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No custom config path was set")
			}
			return nil
		},
	}
}

const starterConfig = `# gcptoolkit configuration
#
# Both sections are optional. Without 'authentication', application default
# credentials are used (gcloud auth application-default login, or the
# attached service account on GCP).

# authentication:
#   type: service_account
#   service_account_path: /path/to/service-account.json

# gcp:
#   project_id: my-project
#   impersonate_service_account: deployer@my-project.iam.gserviceaccount.com
`

// NewConfigInitCommand creates 'config init'
func NewConfigInitCommand(app *App) *cobra.Command {
	var (
		path           string
		force          bool
		projectID      string
		serviceAccount string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a commented starter config file to ~/.config/gcptoolkit/config.yml,
or to --path. Existing files are left alone unless --force is given.

Examples:
  gcptoolkit config init
  gcptoolkit config init --project-id my-project --service-account ~/keys/sa.json`,
		Args: argsBetween(0, 0, ""),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := expandHome(path)
			if target == "" {
				var err error
				if target, err = config.DefaultPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(target); err == nil && !force {
				return dserrors.UserError{
					Message:    fmt.Sprintf("%s already exists", target),
					Suggestion: "Use --force to overwrite it",
				}
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return dserrors.SimplifyError(err)
			}

			content := renderStarterConfig(projectID, expandHome(serviceAccount))

			if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
				return dserrors.SimplifyError(err)
			}
			if err := os.WriteFile(target, []byte(content), 0o600); err != nil {
				return dserrors.SimplifyError(err)
			}

			if _, err := config.LoadFile(target); err != nil {
				app.Logger.Warn("Wrote %s but it does not validate: %v", target, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Where to write the file (default: ~/.config/gcptoolkit/config.yml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().StringVar(&projectID, "project-id", "", "Set gcp.project_id")
	cmd.Flags().StringVar(&serviceAccount, "service-account", "", "Set authentication.service_account_path")

	return cmd
}

func renderStarterConfig(projectID, serviceAccount string) string {
	if projectID == "" && serviceAccount == "" {
		return starterConfig
	}

	var b strings.Builder
	b.WriteString("# gcptoolkit configuration\n\n")
	if serviceAccount != "" {
		fmt.Fprintf(&b, "authentication:\n  type: %s\n  service_account_path: %q\n\n", config.AuthTypeServiceAccount, serviceAccount)
	}
	if projectID != "" {
		fmt.Fprintf(&b, "gcp:\n  project_id: %q\n", projectID)
	}
	return b.String()
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
