// Package harvest drives paginated review collection for a single product id.
package harvest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/reviews-cli/internal/extract"
	"github.com/sells-group/reviews-cli/internal/model"
)

// PageFetcher retrieves the raw markup for one numbered page of a source.
// Implementations apply their own timeout and return an error for transport
// failures and non-success statuses; the harvester treats any error as "no
// more pages available".
type PageFetcher interface {
	FetchPage(ctx context.Context, sourceID string, page int) (string, error)
}

// Options configures a Harvester.
type Options struct {
	// MaxPerSource is the accumulation threshold per source id. Pagination
	// stops once the accumulated count reaches it; the result is not
	// truncated, so it may slightly exceed the threshold.
	MaxPerSource int
	// Delay is the politeness pause between page fetches. Values <= 0 skip
	// the pause.
	Delay time.Duration
	// AllowedStars filters the final result by rating. A set covering the
	// full scale (the default) disables filtering.
	AllowedStars []int
}

// Harvester pages through a source's reviews, extracting and accumulating
// records until a stop condition is hit. Each Harvest call owns its
// accumulator exclusively; a Harvester is safe to reuse across source ids.
type Harvester struct {
	fetcher   PageFetcher
	extractor *extract.Extractor
	opts      Options
}

// New creates a Harvester.
func New(fetcher PageFetcher, extractor *extract.Extractor, opts Options) *Harvester {
	return &Harvester{fetcher: fetcher, extractor: extractor, opts: opts}
}

// Harvest fetches pages for sourceID in increasing order until the per-source
// maximum is reached, a page yields no reviews, the next-page marker is
// missing, or a fetch fails. Fetch failures are not errors: whatever was
// accumulated so far is returned as a partial result. The accumulated set is
// deduplicated across pages by (source_id, record_id), first occurrence wins.
func (h *Harvester) Harvest(ctx context.Context, sourceID string) []model.Review {
	var accumulated []model.Review
	page := 1

	for len(accumulated) < h.opts.MaxPerSource {
		html, err := h.fetcher.FetchPage(ctx, sourceID, page)
		if err != nil {
			zap.L().Info("harvest: stopping on fetch failure",
				zap.String("source_id", sourceID),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}

		pageReviews := h.extractor.Extract(sourceID, html)
		zap.L().Debug("harvest: parsed page",
			zap.String("source_id", sourceID),
			zap.Int("page", page),
			zap.Int("reviews", len(pageReviews)),
		)

		if len(pageReviews) == 0 {
			zap.L().Info("harvest: empty page, assuming end of results",
				zap.String("source_id", sourceID),
				zap.Int("page", page),
			)
			break
		}

		accumulated = model.Deduplicate(append(accumulated, pageReviews...))

		if len(accumulated) >= h.opts.MaxPerSource {
			zap.L().Info("harvest: reached per-source maximum",
				zap.String("source_id", sourceID),
				zap.Int("max", h.opts.MaxPerSource),
			)
			break
		}

		if !extract.HasNextPage(html) {
			zap.L().Info("harvest: no next page link",
				zap.String("source_id", sourceID),
				zap.Int("page", page),
			)
			break
		}

		page++
		if !h.pause(ctx) {
			break
		}
	}

	if len(h.opts.AllowedStars) > 0 && !model.IsFullScale(h.opts.AllowedStars) {
		accumulated = model.FilterByRating(accumulated, h.opts.AllowedStars)
	}

	return accumulated
}

// pause blocks for the configured inter-page delay. Returns false when the
// context is cancelled before the delay elapses.
func (h *Harvester) pause(ctx context.Context) bool {
	if h.opts.Delay <= 0 {
		return true
	}
	t := time.NewTimer(h.opts.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
