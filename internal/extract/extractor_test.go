package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullReviewHTML = `<html><body>
<div id="R1AAAA" data-hook="review">
  <span class="a-profile-name">Jane   Doe</span>
  <i data-hook="review-star-rating"><span>5.0 out of 5 stars</span></i>
  <a data-hook="review-title"><span>Great
  product</span></a>
  <span data-hook="review-body"><span>Works   exactly as described.</span></span>
  <span data-hook="avp-badge">Verified Purchase</span>
  <span data-hook="review-date">Reviewed in the United States on January 2, 2023</span>
  <span class="a-color-secondary" data-hook="format-strip">Color: Black</span>
  <span data-hook="helpful-vote-statement">12 people found this helpful</span>
</div>
</body></html>`

func TestExtract_FullFragment(t *testing.T) {
	t.Parallel()

	reviews := New().Extract("B000TEST01", fullReviewHTML)
	require.Len(t, reviews, 1)

	r := reviews[0]
	assert.Equal(t, "B000TEST01", r.SourceID)
	assert.Equal(t, "R1AAAA", r.RecordID)
	require.NotNil(t, r.AuthorName)
	assert.Equal(t, "Jane Doe", *r.AuthorName)
	assert.Equal(t, 5, r.Rating)
	require.NotNil(t, r.Title)
	assert.Equal(t, "Great product", *r.Title)
	require.NotNil(t, r.Body)
	assert.Equal(t, "Works exactly as described.", *r.Body)
	assert.True(t, r.Verified)
	require.NotNil(t, r.Date)
	assert.Equal(t, "2023-01-02", *r.Date)
	require.NotNil(t, r.Variant)
	assert.Equal(t, "Color: Black", *r.Variant)
	assert.Equal(t, 12, r.HelpfulCount)
}

func TestExtract_EmptyFragmentStillProducesRecord(t *testing.T) {
	t.Parallel()

	html := `<div data-hook="review"></div>`
	reviews := New().Extract("B000TEST01", html)
	require.Len(t, reviews, 1)

	r := reviews[0]
	assert.Equal(t, "", r.RecordID)
	assert.Nil(t, r.AuthorName)
	assert.Equal(t, 0, r.Rating)
	assert.Nil(t, r.Title)
	assert.Nil(t, r.Body)
	assert.False(t, r.Verified)
	assert.Nil(t, r.Date)
	assert.Nil(t, r.Variant)
	assert.Equal(t, 0, r.HelpfulCount)
}

func TestExtract_RatingFallbackSelector(t *testing.T) {
	t.Parallel()

	html := `<div id="R2" data-hook="review">
	  <i data-hook="cmps-review-star-rating"><span>3 out of 5 stars</span></i>
	</div>`
	reviews := New().Extract("B000TEST01", html)
	require.Len(t, reviews, 1)
	assert.Equal(t, 3, reviews[0].Rating)
}

func TestExtract_TitleAndBodyFallbackSelectors(t *testing.T) {
	t.Parallel()

	html := `<div id="R3" data-hook="review">
	  <span data-hook="review-title"><span>Fallback title</span></span>
	  <span data-hook="review-body">Bare body text</span>
	</div>`
	reviews := New().Extract("B000TEST01", html)
	require.Len(t, reviews, 1)

	require.NotNil(t, reviews[0].Title)
	assert.Equal(t, "Fallback title", *reviews[0].Title)
	require.NotNil(t, reviews[0].Body)
	assert.Equal(t, "Bare body text", *reviews[0].Body)
}

func TestExtract_VariantFallbackSelector(t *testing.T) {
	t.Parallel()

	html := `<div id="R4" data-hook="review">
	  <a class="a-size-mini">Size: Large</a>
	</div>`
	reviews := New().Extract("B000TEST01", html)
	require.Len(t, reviews, 1)
	require.NotNil(t, reviews[0].Variant)
	assert.Equal(t, "Size: Large", *reviews[0].Variant)
}

func TestExtract_UnparseableDateIsAbsent(t *testing.T) {
	t.Parallel()

	html := `<div id="R5" data-hook="review">
	  <span data-hook="review-date">sometime last winter</span>
	</div>`
	reviews := New().Extract("B000TEST01", html)
	require.Len(t, reviews, 1)
	assert.Nil(t, reviews[0].Date)
}

func TestExtract_DocumentOrder(t *testing.T) {
	t.Parallel()

	html := ""
	for i := 1; i <= 4; i++ {
		html += fmt.Sprintf(`<div id="R%d" data-hook="review"></div>`, i)
	}

	reviews := New().Extract("B000TEST01", html)
	require.Len(t, reviews, 4)
	for i, r := range reviews {
		assert.Equal(t, fmt.Sprintf("R%d", i+1), r.RecordID)
	}
}

func TestExtract_NoFragments(t *testing.T) {
	t.Parallel()

	reviews := New().Extract("B000TEST01", `<html><body><p>no reviews here</p></body></html>`)
	assert.Empty(t, reviews)
}

// fixedDateParser pins date output for tests that should not depend on the
// flexible parser's behavior.
type fixedDateParser struct {
	date string
	ok   bool
}

func (f fixedDateParser) ParseDate(string) (string, bool) { return f.date, f.ok }

func TestExtract_CustomDateParser(t *testing.T) {
	t.Parallel()

	html := `<div id="R6" data-hook="review">
	  <span data-hook="review-date">whatever</span>
	</div>`

	e := NewWithDateParser(fixedDateParser{date: "1999-12-31", ok: true})
	reviews := e.Extract("B000TEST01", html)
	require.Len(t, reviews, 1)
	require.NotNil(t, reviews[0].Date)
	assert.Equal(t, "1999-12-31", *reviews[0].Date)
}

func TestHasNextPage(t *testing.T) {
	t.Parallel()

	withLink := `<ul><li class="a-last"><a href="/page2">Next</a></li></ul>`
	assert.True(t, HasNextPage(withLink))

	// A disabled last item has no anchor.
	withoutLink := `<ul><li class="a-last a-disabled">Next</li></ul>`
	assert.False(t, HasNextPage(withoutLink))

	assert.False(t, HasNextPage(`<html><body></body></html>`))
}
