package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates 'version'
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gcptoolkit version",
		Args:  argsBetween(0, 0, ""),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "gcptoolkit %s\n", info)
			return nil
		},
	}
}
