package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reviews-cli/internal/model"
	"github.com/sells-group/reviews-cli/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded harvests",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "runs: open store")
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "runs: migrate store")
		}

		harvests, err := st.ListHarvests(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs: list harvests")
		}

		if len(harvests) == 0 {
			fmt.Fprintln(os.Stderr, "No harvests recorded.")
			return nil
		}

		formatHarvestList(os.Stdout, harvests)
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "max harvests to list")
	rootCmd.AddCommand(runsCmd)
}

// formatHarvestList writes a tabular list of harvests to w.
func formatHarvestList(out io.Writer, harvests []model.Harvest) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tASIN\tSTATUS\tREVIEWS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------\t-------")

	for _, h := range harvests {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			h.ID, h.ASIN, h.Status, h.ReviewCount,
			h.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	_ = w.Flush()
}
