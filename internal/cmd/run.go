package cmd

import (
	"github.com/dendrascience/contentsync/contentsync"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run subcommand: distribute then retain.
func NewRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Distribute staged files, then enforce retention",
		Long: `Copy every staged file into each category directory whose token appears
in its name, skipping names already present, then delete all but the newest
files of each category from the category directory and the staging directory.

Per-file errors are logged and counted without stopping the run; the command
exits non-zero if any occurred.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhases(cmd, flags)
		},
	}
}

// NewDistributeCmd creates the distribute subcommand.
func NewDistributeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "distribute",
		Short: "Copy staged files into their category directories only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhases(cmd, flags, contentsync.PhaseDistribute)
		},
	}
}

// NewRetainCmd creates the retain subcommand.
func NewRetainCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "retain",
		Short: "Delete all but the newest files of each category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhases(cmd, flags, contentsync.PhaseRetain)
		},
	}
}

func runPhases(cmd *cobra.Command, flags *globalFlags, phases ...contentsync.Phase) error {
	a, err := loadApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	observers, err := a.observers()
	if err != nil {
		return err
	}
	runner := contentsync.NewRunner(a.opts, observers...)
	return runOnce(cmd.Context(), cmd, runner, phases...)
}
