package restapi

import (
	"net/http"
	"strconv"

	"railwatch.transitlabs.org/internal/correlate"
	"railwatch.transitlabs.org/internal/logging"
	"railwatch.transitlabs.org/internal/models"
	"railwatch.transitlabs.org/internal/utils"
)

func (api *RestAPI) nextTrainsParams(w http.ResponseWriter, r *http.Request) (start, end string, n int, ok bool) {
	query := r.URL.Query()
	start = query.Get("start")
	end = query.Get("end")
	if start == "" || end == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"start": {"start and end stations are required"},
		})
		return "", "", 0, false
	}

	n = 3
	if raw := query.Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.validationErrorResponse(w, r, map[string][]string{
				"n": {"n must be a positive integer"},
			})
			return "", "", 0, false
		}
		n = parsed
	}
	return start, end, n, true
}

func (api *RestAPI) nextTrainsHandler(w http.ResponseWriter, r *http.Request) {
	start, end, n, ok := api.nextTrainsParams(w, r)
	if !ok {
		return
	}

	arrivals, err := api.RailClient.NextTrains(r.Context(), start, end, n)
	if err != nil {
		// Fetch failures degrade to an empty list rather than a hard error;
		// the client retries on its own schedule.
		logging.LogError(api.Logger, "next-trains fetch failed", err)
		arrivals = []models.NextTrain{}
	}

	api.sendResponse(w, r, models.NewListResponse(map[string]any{"arrivals": arrivals}, api.Clock))
}

// arrivalEntry is one correlated arrival: the prediction joined with its live
// train and delay-adjusted display times.
type arrivalEntry struct {
	Train             models.Train     `json:"train"`
	Arrival           models.NextTrain `json:"arrival"`
	AdjustedDeparture string           `json:"adjustedDeparture"`
	AdjustedArrival   string           `json:"adjustedArrival"`
}

func (api *RestAPI) arrivalsHandler(w http.ResponseWriter, r *http.Request) {
	start, end, n, ok := api.nextTrainsParams(w, r)
	if !ok {
		return
	}

	arrivals, err := api.RailClient.NextTrains(r.Context(), start, end, n)
	if err != nil {
		logging.LogError(api.Logger, "next-trains fetch failed", err)
		arrivals = []models.NextTrain{}
	}

	trains := api.Tracker.Trains()
	pairs := correlate.Match(trains, arrivals)

	tracked := make([]arrivalEntry, 0, len(pairs))
	matched := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		matched[pair.Arrival.OrigTrain] = true
		tracked = append(tracked, arrivalEntry{
			Train:             pair.Train,
			Arrival:           pair.Arrival,
			AdjustedDeparture: utils.AdjustTime(pair.Arrival.OrigDeparture, pair.Arrival.OrigDelay),
			AdjustedArrival:   utils.AdjustTime(pair.Arrival.OrigArrival, pair.Arrival.OrigDelay),
		})
	}

	// Arrivals with no live train are prediction-only and listed separately.
	predictionOnly := make([]models.NextTrain, 0)
	for _, arrival := range arrivals {
		if !matched[arrival.OrigTrain] {
			predictionOnly = append(predictionOnly, arrival)
		}
	}

	api.sendResponse(w, r, models.NewListResponse(map[string]any{
		"tracked":        tracked,
		"predictionOnly": predictionOnly,
	}, api.Clock))
}
