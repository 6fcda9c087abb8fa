// internal/compare/engine.go

// Package compare ranks normalized listings and decides comparison verdicts.
// All functions are pure: they never touch the device or the network.
package compare

import (
	"fmt"
	"sort"

	"droid-orchestrator/internal/models"
)

// Rank orders items by price ascending, breaking price ties by rating
// descending. The sort is stable so equal items keep their extraction order.
func Rank(items []models.Item) []models.Item {
	ranked := make([]models.Item, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].NumericPrice != ranked[j].NumericPrice {
			return ranked[i].NumericPrice < ranked[j].NumericPrice
		}
		return ranked[i].NumericRating > ranked[j].NumericRating
	})

	return ranked
}

// Best returns the top-ranked item, or nil for an empty list.
func Best(items []models.Item) *models.Item {
	if len(items) == 0 {
		return nil
	}
	ranked := Rank(items)
	return &ranked[0]
}

// ChooseWinner decides between the best items of two platforms. Platform
// order matters: on a full tie of price and rating, platform B wins.
func ChooseWinner(a, b *models.SessionResult, platformA, platformB string) (string, string) {
	bestA := bestOf(a)
	bestB := bestOf(b)

	switch {
	case bestA == nil && bestB == nil:
		return "", "Could not find the item on either platform."
	case bestA == nil:
		return platformB, fmt.Sprintf("Only found on %s.", platformB)
	case bestB == nil:
		return platformA, fmt.Sprintf("Only found on %s.", platformA)
	}

	if bestA.NumericPrice < bestB.NumericPrice {
		return platformA, fmt.Sprintf("%s is cheaper.", platformA)
	}
	if bestB.NumericPrice < bestA.NumericPrice {
		return platformB, fmt.Sprintf("%s is cheaper.", platformB)
	}

	// Prices equal: higher rating wins, and B takes the full tie.
	if bestA.NumericRating > bestB.NumericRating {
		return platformA, fmt.Sprintf("Prices equal, but %s has better rating.", platformA)
	}
	return platformB, fmt.Sprintf("Prices equal, but %s has better rating.", platformB)
}

func bestOf(r *models.SessionResult) *models.Item {
	if r == nil || !r.Succeeded() {
		return nil
	}
	return r.BestItem
}
