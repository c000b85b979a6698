// Package correlate matches live trains against next-to-arrive predictions by
// their shared train number.
package correlate

import (
	"railwatch.transitlabs.org/internal/models"
)

// Pair is a live train joined with the prediction that references it.
type Pair struct {
	Train   models.Train     `json:"train"`
	Arrival models.NextTrain `json:"arrival"`
}

// Match pairs each arrival with the first live train whose number equals the
// arrival's originating train. Output order follows the arrivals list; each
// originating train number is consumed at most once; arrivals with no live
// train are omitted (they are displayed separately as prediction-only).
// Duplicate train numbers in the live feed should not happen, but when they
// do the first occurrence wins; that is defined behavior, not a bug.
// Inputs are never mutated. O(|arrivals| × |trains|), fine at feed scale
// (tens of entries each).
func Match(trains []models.Train, arrivals []models.NextTrain) []Pair {
	var pairs []Pair
	consumed := make(map[string]bool, len(arrivals))

	for _, arrival := range arrivals {
		if consumed[arrival.OrigTrain] {
			continue
		}
		for _, train := range trains {
			if train.TrainNo == arrival.OrigTrain {
				pairs = append(pairs, Pair{Train: train, Arrival: arrival})
				consumed[arrival.OrigTrain] = true
				break
			}
		}
	}
	return pairs
}
