package cmd

import (
	"fmt"
	"time"

	"github.com/dendrascience/contentsync/contentsync"
	"github.com/spf13/cobra"
)

// NewPlanCmd creates the plan subcommand, which prints the retention set and
// the files that would expire for every category without changing anything.
func NewPlanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show which files retention would keep and delete",
		Long: `For each category, list the files in its destination directory that
retention keeps and the ones it would delete, ordered oldest first.
Files are ranked by modification time, ties broken by name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			retainer := contentsync.NewRetainer(a.opts)
			out := cmd.OutOrStdout()

			var failed int
			for _, c := range a.opts.Categories {
				keep, expire, err := retainer.Plan(c)
				if err != nil {
					a.logger.Warn("failed to list category", "category", c.Name, "error", err)
					failed++
					continue
				}
				fmt.Fprintf(out, "%s (retention %d): keep %d, expire %d\n",
					categoryLabel(c.Name), c.Retention, len(keep), len(expire))
				for _, e := range expire {
					fmt.Fprintf(out, "  - %s  %s\n", e.ModTime.Format(time.RFC3339), e.Name)
				}
				for _, e := range keep {
					fmt.Fprintf(out, "  = %s  %s\n", e.ModTime.Format(time.RFC3339), e.Name)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d categories could not be listed", failed)
			}
			return nil
		},
	}
}
