package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/reviews-cli/internal/export"
	"github.com/sells-group/reviews-cli/internal/extract"
	"github.com/sells-group/reviews-cli/internal/fetcher"
	"github.com/sells-group/reviews-cli/internal/harvest"
	"github.com/sells-group/reviews-cli/internal/model"
	"github.com/sells-group/reviews-cli/internal/store"
)

var (
	scrapeInput  string
	scrapeOutput string
	scrapeFormat string
	scrapeSave   bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Harvest reviews for the ASINs listed in a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		asins, err := readASINs(scrapeInput)
		if err != nil {
			return err
		}
		if len(asins) == 0 {
			zap.L().Warn("no asins found in input file, nothing to do",
				zap.String("input", scrapeInput),
			)
			return nil
		}

		if limit := cfg.Source.DailyASINLimit; limit > 0 && len(asins) > limit {
			zap.L().Warn("asin count exceeds daily limit, truncating",
				zap.Int("asins", len(asins)),
				zap.Int("limit", limit),
			)
			asins = asins[:limit]
		}

		pages := fetcher.NewHTTPFetcher(fetcher.Options{
			BaseURL:   cfg.Source.BaseURL,
			UserAgent: cfg.Source.UserAgent,
			Timeout:   cfg.Source.Timeout(),
			RateLimit: rate.Limit(cfg.Source.RateLimit),
		})
		harvester := harvest.New(pages, extract.New(), harvest.Options{
			MaxPerSource: cfg.Source.MaxReviewsPerASIN,
			Delay:        cfg.Source.Delay(),
			AllowedStars: cfg.Source.Stars,
		})

		var st store.Store
		if scrapeSave {
			st, err = store.Open(ctx, cfg.Store)
			if err != nil {
				return eris.Wrap(err, "scrape: open store")
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "scrape: migrate store")
			}
		}

		all := harvestBatch(ctx, harvester, st, asins)
		if len(all) == 0 {
			zap.L().Warn("no reviews collected, skipping export")
			return nil
		}

		all = model.Deduplicate(all)
		zap.L().Info("collected reviews", zap.Int("unique", len(all)))

		format, err := export.ParseFormat(firstNonEmpty(scrapeFormat, cfg.Output.Format))
		if err != nil {
			return err
		}
		outPath := firstNonEmpty(scrapeOutput, cfg.Output.Path)
		return export.Write(all, outPath, format, cfg.Output.Indent)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeInput, "input", "data/asins.txt", "path to ASIN list file")
	scrapeCmd.Flags().StringVar(&scrapeOutput, "output", "", "output file path (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeFormat, "format", "", "output format: json or ndjson (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "also record the harvest in the store")
	rootCmd.AddCommand(scrapeCmd)
}

// readASINs reads one ASIN per line, skipping blanks and # comments.
func readASINs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: open input %s", path)
	}
	defer func() { _ = file.Close() }()

	var asins []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		asins = append(asins, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "scrape: read input %s", path)
	}
	return asins, nil
}

// harvestBatch processes ASINs sequentially. Failures are contained per ASIN:
// a store error or an empty harvest never aborts the rest of the batch. When
// st is nil nothing is persisted.
func harvestBatch(ctx context.Context, h *harvest.Harvester, st store.Store, asins []string) []model.Review {
	var all []model.Review

	for i, asin := range asins {
		zap.L().Info("scraping reviews",
			zap.String("asin", asin),
			zap.Int("n", i+1),
			zap.Int("total", len(asins)),
		)

		var harvestID string
		if st != nil {
			rec, err := st.CreateHarvest(ctx, asin)
			if err != nil {
				zap.L().Error("create harvest record failed, skipping persistence",
					zap.String("asin", asin),
					zap.Error(err),
				)
			} else {
				harvestID = rec.ID
			}
		}

		reviews := h.Harvest(ctx, asin)
		zap.L().Info("fetched reviews",
			zap.String("asin", asin),
			zap.Int("reviews", len(reviews)),
		)

		if st != nil && harvestID != "" {
			if err := st.SaveReviews(ctx, harvestID, reviews); err != nil {
				zap.L().Error("save reviews failed",
					zap.String("asin", asin),
					zap.Error(err),
				)
				if err := st.FailHarvest(ctx, harvestID); err != nil {
					zap.L().Error("mark harvest failed", zap.Error(err))
				}
			} else if err := st.CompleteHarvest(ctx, harvestID, len(reviews)); err != nil {
				zap.L().Error("complete harvest failed",
					zap.String("asin", asin),
					zap.Error(err),
				)
			}
		}

		all = append(all, reviews...)

		if ctx.Err() != nil {
			zap.L().Warn("batch interrupted", zap.Int("processed", i+1))
			break
		}
	}

	return all
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
