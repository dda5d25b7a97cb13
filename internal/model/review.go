package model

// Review is a single normalized product review. Reviews are constructed once
// by the extractor and never mutated afterwards; pipeline stages only append,
// drop, or filter whole records.
type Review struct {
	SourceID     string  `json:"source_id"`
	RecordID     string  `json:"record_id"`
	AuthorName   *string `json:"author_name"`
	Rating       int     `json:"rating"`
	Title        *string `json:"title"`
	Body         *string `json:"body"`
	Verified     bool    `json:"verified"`
	Date         *string `json:"date"`
	Variant      *string `json:"variant"`
	HelpfulCount int     `json:"helpful_count"`
}

// Key identifies a review within an accumulated set.
type Key struct {
	SourceID string
	RecordID string
}

// Key returns the dedup key for the review.
func (r Review) Key() Key {
	return Key{SourceID: r.SourceID, RecordID: r.RecordID}
}

// FullScale returns the complete star rating scale.
func FullScale() []int {
	return []int{1, 2, 3, 4, 5}
}

// Deduplicate removes reviews with a repeated (source_id, record_id) key,
// keeping the first occurrence and preserving relative order. It is
// idempotent: deduplicating an already-deduplicated slice returns an equal
// slice.
func Deduplicate(reviews []Review) []Review {
	seen := make(map[Key]struct{}, len(reviews))
	unique := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// FilterByRating returns only the reviews whose rating is in the allowed set.
func FilterByRating(reviews []Review, allowed []int) []Review {
	set := make(map[int]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	out := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := set[r.Rating]; ok {
			out = append(out, r)
		}
	}
	return out
}

// IsFullScale reports whether the allowed set covers the entire rating scale,
// in which case filtering is a no-op and callers skip it.
func IsFullScale(allowed []int) bool {
	set := make(map[int]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	for _, s := range FullScale() {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
