// internal/models/item.go
package models

// Item is a single listing extracted from an automation session. The display
// fields keep whatever the on-device agent reported verbatim; the numeric
// fields carry the canonical values used for ranking.
type Item struct {
	Title  string `json:"title"`
	Price  string `json:"price"`
	Rating string `json:"rating"`

	NumericPrice  float64 `json:"numeric_price"`
	NumericRating float64 `json:"numeric_rating"`
}

// Session status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// SessionResult is the normalized outcome of one automation session on one
// platform. Status reflects only whether the raw output decoded into the
// expected shape; an empty item list on a decodable response is still success.
type SessionResult struct {
	Platform    string  `json:"platform"`
	Status      string  `json:"status"`
	Items       []Item  `json:"items"`
	BestItem    *Item   `json:"best_item,omitempty"`
	RawResponse string  `json:"raw_response,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Succeeded reports whether the session produced a decodable result.
func (r *SessionResult) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// Verdict is the outcome of a two-platform comparison.
type Verdict struct {
	Query          string                    `json:"query"`
	Category       string                    `json:"category"`
	WinnerPlatform string                    `json:"winner_platform"`
	Recommendation string                    `json:"recommendation"`
	Details        map[string]*SessionResult `json:"details"`
}
