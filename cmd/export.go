package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reviews-cli/internal/export"
	"github.com/sells-group/reviews-cli/internal/store"
)

var (
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export <asin>",
	Short: "Re-export stored reviews for an ASIN",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asin := args[0]

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "export: open store")
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "export: migrate store")
		}

		reviews, err := st.GetReviews(ctx, asin)
		if err != nil {
			return eris.Wrap(err, "export: load reviews")
		}
		if len(reviews) == 0 {
			zap.L().Warn("no stored reviews for asin", zap.String("asin", asin))
			return nil
		}

		format, err := export.ParseFormat(firstNonEmpty(exportFormat, cfg.Output.Format))
		if err != nil {
			return err
		}
		outPath := firstNonEmpty(exportOutput, cfg.Output.Path)
		return export.Write(reviews, outPath, format, cfg.Output.Indent)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file path (default from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: json or ndjson (default from config)")
	rootCmd.AddCommand(exportCmd)
}
