package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dendrascience/contentsync/config"
	"github.com/dendrascience/contentsync/history"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history subcommand, which reads the run ledger.
func NewHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		limit     int
		pruneDays int
	)

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recent runs, or the file actions of one run",
		Long: `Without arguments, list the most recent runs recorded in the history
database (history.path). With a RUN_ID, list every copy, deletion and failure
of that run in the order it happened.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath(flags.configPath))
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history is not enabled (history.enabled)")
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if pruneDays > 0 {
				n, err := store.Prune(ctx, time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "pruned %d runs older than %d days\n", n, pruneDays)
				return nil
			}

			if len(args) == 1 {
				entries, err := store.Actions(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "PHASE\tCATEGORY\tOP\tNAME\tDETAIL")
				for _, e := range entries {
					detail := e.Hash
					if e.Error != "" {
						detail = "error: " + e.Error
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Phase, categoryLabel(e.Category), e.Op, e.Name, detail)
				}
				return nil
			}

			runs, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tCOPIED\tDELETED\tERRORS")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
					r.ID, r.Started.Format(time.RFC3339), r.Duration().Round(time.Millisecond),
					r.Copied, r.Deleted, r.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "Delete runs older than this many days instead of listing")
	return cmd
}
