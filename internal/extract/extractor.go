// Package extract parses review records out of product review page HTML.
//
// Marketplace review markup drifts between layout experiments, so every field
// is located through an ordered chain of selectors tried first-to-last; a
// field whose selectors all miss takes its zero/absent value without
// affecting the rest of the fragment.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/reviews-cli/internal/model"
)

const (
	fragmentSelector = `div[data-hook="review"]`
	nextPageSelector = `li.a-last a`
	verifiedSelector = `span[data-hook="avp-badge"]`
)

// Selector chains per field, in fallback priority order.
var (
	authorSelectors = []string{`span.a-profile-name`}
	ratingSelectors = []string{
		`i[data-hook="review-star-rating"] span`,
		`i[data-hook="cmps-review-star-rating"] span`,
	}
	titleSelectors = []string{
		`a[data-hook="review-title"] span`,
		`span[data-hook="review-title"] span`,
	}
	bodySelectors = []string{
		`span[data-hook="review-body"] span`,
		`span[data-hook="review-body"]`,
	}
	dateSelectors = []string{`span[data-hook="review-date"]`}
	variantSelectors = []string{
		`span.a-color-secondary[data-hook="format-strip"]`,
		`a.a-size-mini`,
	}
	helpfulSelectors = []string{`span[data-hook="helpful-vote-statement"]`}
)

// Extractor derives structured reviews from raw page markup. It holds no
// state beyond the date parser, and Extract is a pure function of its input.
type Extractor struct {
	dates DateParser
}

// New creates an Extractor with the default flexible date parser.
func New() *Extractor {
	return &Extractor{dates: FlexDateParser{}}
}

// NewWithDateParser creates an Extractor with a custom date parser.
func NewWithDateParser(dates DateParser) *Extractor {
	return &Extractor{dates: dates}
}

// Extract returns one review per fragment found in the markup, in document
// order. Malformed markup yields zero reviews rather than an error; a
// missing field never prevents its fragment from producing a record.
func (e *Extractor) Extract(sourceID, html string) []model.Review {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var reviews []model.Review
	doc.Find(fragmentSelector).Each(func(_ int, frag *goquery.Selection) {
		reviews = append(reviews, e.extractFragment(sourceID, frag))
	})
	return reviews
}

func (e *Extractor) extractFragment(sourceID string, frag *goquery.Selection) model.Review {
	r := model.Review{
		SourceID:   sourceID,
		RecordID:   frag.AttrOr("id", ""),
		AuthorName: firstText(frag, authorSelectors),
		Title:      firstText(frag, titleSelectors),
		Body:       firstText(frag, bodySelectors),
		Variant:    firstText(frag, variantSelectors),
		Verified:   frag.Find(verifiedSelector).Length() > 0,
	}

	if text := firstText(frag, ratingSelectors); text != nil {
		if rating, ok := ParseRating(*text); ok {
			r.Rating = rating
		}
	}

	if text := firstText(frag, dateSelectors); text != nil {
		if date, ok := e.dates.ParseDate(*text); ok {
			r.Date = &date
		}
	}

	if text := firstText(frag, helpfulSelectors); text != nil {
		r.HelpfulCount = ParseHelpfulVotes(*text)
	}

	return r
}

// firstText tries each selector in order and returns the cleaned text of the
// first one that yields a non-empty result, or nil when all miss.
func firstText(frag *goquery.Selection, selectors []string) *string {
	for _, sel := range selectors {
		node := frag.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := CleanText(node.Text()); text != nil {
			return text
		}
	}
	return nil
}

// HasNextPage reports whether the page markup carries a clickable
// next-page pagination link.
func HasNextPage(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return doc.Find(nextPageSelector).Length() > 0
}
