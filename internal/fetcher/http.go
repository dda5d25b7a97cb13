// Package fetcher retrieves review pages over HTTP.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures the HTTP page fetcher.
type Options struct {
	// BaseURL is the review page template. {asin} and {page} placeholders
	// are substituted per request.
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RateLimit caps outgoing requests per second across all ASINs.
	// Zero disables limiting.
	RateLimit rate.Limit
}

// HTTPFetcher fetches review pages using net/http. There is no retry: any
// transport error or non-200 status is returned as an error and the caller
// decides what that means for pagination.
type HTTPFetcher struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.amazon.com/product-reviews/{asin}?pageNumber={page}"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(opts.RateLimit, 1)
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:    opts,
		limiter: limiter,
	}
}

// PageURL builds the review page URL for an ASIN and page number.
func (f *HTTPFetcher) PageURL(asin string, page int) string {
	r := strings.NewReplacer(
		"{asin}", url.PathEscape(asin),
		"{page}", strconv.Itoa(page),
	)
	return r.Replace(f.opts.BaseURL)
}

// FetchPage retrieves the markup for one review page. Implements
// harvest.PageFetcher.
func (f *HTTPFetcher) FetchPage(ctx context.Context, asin string, page int) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "fetcher: rate limiter wait")
		}
	}

	pageURL := f.PageURL(asin, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: get %s", pageURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("fetcher: status %d from %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: read body")
	}

	return string(body), nil
}
