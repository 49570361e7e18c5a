package cmd

import (
	"github.com/dendrascience/contentsync/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root cobra command for the contentsync CLI.
// It sets up all subcommands, command groups and the persistent flags. Run
// without a subcommand it performs a full run.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "contentsync",
		Short: "contentsync - distribute staged content into category directories and prune old copies",
		Long: `contentsync copies files from a flat staging directory into per-category
destination directories, matching each file to every category whose token
appears in its name. It then keeps only the newest files of each category,
deleting the rest from both the category directory and the staging directory.

Running contentsync without a subcommand performs a full run.`,
		Version:       version.GetFullVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhases(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to the YAML configuration file (env CONTENTSYNC_CONFIG)")
	pf.CountVarP(&flags.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Report what would be copied and deleted without touching any file")

	groupSync := "sync"
	groupInspect := "inspect"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupSync,
		Title: "Sync Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupInspect,
		Title: "Inspection Commands",
	})

	runCmd := NewRunCmd(flags)
	distributeCmd := NewDistributeCmd(flags)
	retainCmd := NewRetainCmd(flags)
	daemonCmd := NewDaemonCmd(flags)
	planCmd := NewPlanCmd(flags)
	historyCmd := NewHistoryCmd(flags)
	viewCmd := NewViewCmd(flags)
	validateCmd := NewValidateCmd(flags)

	runCmd.GroupID = groupSync
	distributeCmd.GroupID = groupSync
	retainCmd.GroupID = groupSync
	daemonCmd.GroupID = groupSync
	planCmd.GroupID = groupInspect
	historyCmd.GroupID = groupInspect
	viewCmd.GroupID = groupInspect
	validateCmd.GroupID = groupInspect

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(distributeCmd)
	rootCmd.AddCommand(retainCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
