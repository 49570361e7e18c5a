package cmd

import (
	"github.com/dendrascience/contentsync/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return version.PrintVersion(cmd.OutOrStdout(), "contentsync")
		},
	}
}
