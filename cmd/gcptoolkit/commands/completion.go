package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	dserrors "github.com/systmms/gcptoolkit/internal/errors"
)

// NewCompletionCommand creates the completion command for generating shell completions.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gcptoolkit.

Bash:
  $ source <(gcptoolkit completion bash)

Zsh:
  $ gcptoolkit completion zsh > "${fpath[1]}/_gcptoolkit"

Fish:
  $ gcptoolkit completion fish > ~/.config/fish/completions/gcptoolkit.fish

PowerShell:
  PS> gcptoolkit completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  argsBetween(1, 1, "SHELL"),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return dserrors.UsageError{
				Message:    fmt.Sprintf("unsupported shell %q", args[0]),
				Suggestion: "Choose one of: bash, zsh, fish, powershell",
			}
		},
	}

	return cmd
}
