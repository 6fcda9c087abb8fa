// internal/parse/normalize.go
package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// ExtractPrice pulls the first numeric token out of a free-form price string.
// Thousands separators are stripped first so "1,29,999" reads as one number.
// An unparseable price maps to +Inf, which sinks the item to the bottom of
// any price-ascending ranking.
func ExtractPrice(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := numberPattern.FindString(cleaned)
	if match == "" {
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

// ExtractRating pulls the first numeric token out of a free-form rating
// string, e.g. "4.5 stars" or "Rated 4.2/5". An unparseable rating maps to
// 0.0, the worst possible rating.
func ExtractRating(raw string) float64 {
	match := numberPattern.FindString(raw)
	if match == "" {
		return 0.0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0.0
	}
	return v
}

// StripFences removes a markdown code fence wrapper if present. Model output
// frequently arrives as ```json ... ``` even when asked for bare JSON.
func StripFences(raw string) string {
	if strings.Contains(raw, "```json") {
		raw = strings.SplitN(raw, "```json", 2)[1]
		raw = strings.SplitN(raw, "```", 2)[0]
	} else if strings.Contains(raw, "```") {
		raw = strings.SplitN(raw, "```", 2)[1]
		raw = strings.SplitN(raw, "```", 2)[0]
	}
	return strings.TrimSpace(raw)
}
