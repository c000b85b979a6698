package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railwatch.transitlabs.org/internal/models"
)

func train(no string) models.Train {
	return models.Train{TrainNo: no, Line: "Airport"}
}

func arrival(origTrain string) models.NextTrain {
	return models.NextTrain{OrigTrain: origTrain, Direct: true}
}

func TestMatchBasicPairing(t *testing.T) {
	trains := []models.Train{train("514"), train("6358"), train("900")}
	arrivals := []models.NextTrain{arrival("6358"), arrival("514")}

	pairs := Match(trains, arrivals)

	require.Len(t, pairs, 2)
	// Output follows arrivals order, not trains order.
	assert.Equal(t, "6358", pairs[0].Train.TrainNo)
	assert.Equal(t, "514", pairs[1].Train.TrainNo)
}

func TestMatchUnmatchedArrivalsOmitted(t *testing.T) {
	trains := []models.Train{train("514")}
	arrivals := []models.NextTrain{arrival("514"), arrival("9999")}

	pairs := Match(trains, arrivals)

	require.Len(t, pairs, 1)
	assert.Equal(t, "514", pairs[0].Arrival.OrigTrain)
}

func TestMatchDuplicateArrivalConsumedOnce(t *testing.T) {
	trains := []models.Train{train("514")}
	arrivals := []models.NextTrain{arrival("514"), arrival("514")}

	pairs := Match(trains, arrivals)

	assert.Len(t, pairs, 1)
}

func TestMatchDuplicateTrainFirstWins(t *testing.T) {
	first := train("514")
	first.Dest = "Airport Terminal E-F"
	second := train("514")
	second.Dest = "Somewhere Else"

	pairs := Match([]models.Train{first, second}, []models.NextTrain{arrival("514")})

	require.Len(t, pairs, 1)
	assert.Equal(t, "Airport Terminal E-F", pairs[0].Train.Dest)
}

func TestMatchEmptyInputs(t *testing.T) {
	assert.Empty(t, Match(nil, nil))
	assert.Empty(t, Match([]models.Train{train("514")}, nil))
	assert.Empty(t, Match(nil, []models.NextTrain{arrival("514")}))
}

func TestMatchBoundedByBothLists(t *testing.T) {
	trains := []models.Train{train("1"), train("2"), train("3")}
	arrivals := []models.NextTrain{arrival("1"), arrival("2"), arrival("3"), arrival("4"), arrival("1")}

	pairs := Match(trains, arrivals)

	assert.LessOrEqual(t, len(pairs), len(trains))
	assert.LessOrEqual(t, len(pairs), len(arrivals))

	seen := map[string]int{}
	for _, p := range pairs {
		seen[p.Arrival.OrigTrain]++
	}
	for no, count := range seen {
		assert.Equal(t, 1, count, "origTrain %s appeared more than once", no)
	}
}

func TestMatchDoesNotMutateInputs(t *testing.T) {
	trains := []models.Train{train("514")}
	arrivals := []models.NextTrain{arrival("514")}

	_ = Match(trains, arrivals)

	assert.Equal(t, []models.Train{train("514")}, trains)
	assert.Equal(t, []models.NextTrain{arrival("514")}, arrivals)
}
