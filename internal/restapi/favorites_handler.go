package restapi

import (
	"encoding/json"
	"net/http"

	"railwatch.transitlabs.org/internal/models"
)

func (api *RestAPI) favoritesListHandler(w http.ResponseWriter, r *http.Request) {
	pairs := api.Favorites.Favorites()
	results := api.Favorites.Results()

	type favoriteEntry struct {
		Start    string             `json:"start"`
		End      string             `json:"end"`
		Arrivals []models.NextTrain `json:"arrivals"`
	}

	entries := make([]favoriteEntry, 0, len(pairs))
	for _, pair := range pairs {
		arrivals := results[pair.Key()]
		if arrivals == nil {
			arrivals = []models.NextTrain{}
		}
		entries = append(entries, favoriteEntry{
			Start:    pair.Start,
			End:      pair.End,
			Arrivals: arrivals,
		})
	}

	api.sendResponse(w, r, models.NewListResponse(map[string]any{"favorites": entries}, api.Clock))
}

func (api *RestAPI) favoritesAddHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{
			"body": {"request body must be JSON with start and end stations"},
		})
		return
	}
	if body.Start == "" || body.End == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"start": {"start and end stations are required"},
		})
		return
	}

	pair := models.StationPair{Start: body.Start, End: body.End}
	if err := api.Favorites.Add(pair); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(map[string]any{
		"start": pair.Start,
		"end":   pair.End,
	}, api.Clock))
}

func (api *RestAPI) favoritesRemoveHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start := query.Get("start")
	end := query.Get("end")
	if start == "" || end == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"start": {"start and end stations are required"},
		})
		return
	}

	pair := models.StationPair{Start: start, End: end}
	if err := api.Favorites.Remove(pair); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(map[string]any{
		"start": pair.Start,
		"end":   pair.End,
	}, api.Clock))
}
