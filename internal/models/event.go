// internal/models/event.go
package models

// InviteOutcome records one guest invitation attempt.
type InviteOutcome struct {
	Guest  Guest  `json:"guest"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// OrderOutcome records one catering item order.
type OrderOutcome struct {
	MenuItem string `json:"menu_item"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// RideOutcome records one logistics booking, including which platform won
// the fare comparison for that route.
type RideOutcome struct {
	GuestName      string `json:"guest_name"`
	Pickup         string `json:"pickup"`
	Drop           string `json:"drop"`
	WinnerPlatform string `json:"winner_platform"`
	Recommendation string `json:"recommendation"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

// EventSummary is the aggregate outcome of a coordinator workflow. Every
// stage runs to completion; per-iteration failures are recorded, not fatal.
type EventSummary struct {
	EventName string          `json:"event_name"`
	Invites   []InviteOutcome `json:"invites"`
	Orders    []OrderOutcome  `json:"orders"`
	Rides     []RideOutcome   `json:"rides"`
}
