package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate subcommand, which checks the
// configuration and directory layout without running.
func NewValidateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and directory layout",
		Long: `Load the configuration, apply defaults and environment overrides, and check
that the staging directory and every category directory exist. Prints the
effective categories and retention counts. Nothing on disk is changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source:      %s\n", a.opts.SourceDir)
			fmt.Fprintf(out, "destination: %s\n", a.opts.DestRoot)
			for _, c := range a.opts.Categories {
				fmt.Fprintf(out, "  %s  retention=%d\n", categoryLabel(c.Name), c.Retention)
			}
			for _, pair := range a.opts.Categories.Overlaps() {
				fmt.Fprintf(out, "warning: %q contains %q, matching files go to both\n", pair[0], pair[1])
			}
			fmt.Fprintln(out, "configuration ok")
			return nil
		},
	}
}
