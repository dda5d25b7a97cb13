package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// CleanText collapses whitespace runs (spaces, tabs, newlines) to single
// spaces and trims the result. A string that is empty after collapsing
// becomes nil rather than "".
func CleanText(s string) *string {
	cleaned := strings.Join(strings.Fields(s), " ")
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// ParseRating parses texts like "5.0 out of 5 stars" by reading the leading
// numeric token and rounding to the nearest integer. Returns ok=false when
// the text is empty or the leading token is not a number.
func ParseRating(text string) (int, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}
	return int(math.Round(value)), true
}

// ParseHelpfulVotes parses texts like "12 people found this helpful" or
// "One person found this helpful". The singular phrase maps to 1; otherwise
// every digit rune in the text is concatenated and parsed as one integer.
// Note this concatenates digits across separate numbers ("2 of 14 people"
// yields 214); that quirk is long-standing upstream behavior and kept as-is.
func ParseHelpfulVotes(text string) int {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0
	}
	if strings.Contains(text, "one person") {
		return 1
	}
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}

// DateParser converts loosely-formatted date text to canonical YYYY-MM-DD.
// Implementations must be total: any failure returns ok=false, never a panic.
type DateParser interface {
	ParseDate(text string) (string, bool)
}

// FlexDateParser handles review date lines such as
// "Reviewed in the United States on January 2, 2023" by discarding the prose
// before the final " on " and parsing the remainder with dateparse.
type FlexDateParser struct{}

// ParseDate implements DateParser.
func (FlexDateParser) ParseDate(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if idx := strings.LastIndex(text, " on "); idx >= 0 {
		text = text[idx+len(" on "):]
	}
	ts, err := dateparse.ParseAny(text)
	if err != nil {
		return "", false
	}
	return ts.Format("2006-01-02"), true
}
