package restapi

import (
	"net/http"

	"railwatch.transitlabs.org/internal/models"
)

func (api *RestAPI) schedulesHandler(w http.ResponseWriter, r *http.Request) {
	line := pathID(r, "line")
	if line == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"line": {"line code is required"},
		})
		return
	}

	schedules := api.RefData.Schedules()
	if schedules == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "schedule data not loaded yet")
		return
	}

	lineSchedules, ok := schedules[line]
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	query := r.URL.Query()
	day := query.Get("day")
	direction := query.Get("direction")

	fieldErrors := map[string][]string{}
	if day != "" && !models.ValidDay(day) {
		fieldErrors["day"] = []string{"day must be one of mon-fri, sat, sun"}
	}
	if direction != "" && !models.ValidDirection(direction) {
		fieldErrors["direction"] = []string{"direction must be inbound or outbound"}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	// Unfiltered: the whole line, keyed by day and direction.
	if day == "" && direction == "" {
		api.sendResponse(w, r, models.NewEntryResponse(lineSchedules, api.Clock))
		return
	}
	if direction == "" {
		api.sendResponse(w, r, models.NewEntryResponse(lineSchedules[day], api.Clock))
		return
	}
	if day == "" {
		filtered := map[string][]models.TrainSchedule{}
		for dayBucket, directions := range lineSchedules {
			filtered[dayBucket] = directions[direction]
		}
		api.sendResponse(w, r, models.NewEntryResponse(filtered, api.Clock))
		return
	}

	api.sendResponse(w, r, models.NewListResponse(map[string]any{
		"schedules": lineSchedules[day][direction],
	}, api.Clock))
}

func (api *RestAPI) stopsHandler(w http.ResponseWriter, r *http.Request) {
	stops := api.RefData.Stops()
	if stops == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "stop data not loaded yet")
		return
	}
	api.sendResponse(w, r, models.NewListResponse(map[string]any{"stops": stops}, api.Clock))
}

func (api *RestAPI) advisoriesHandler(w http.ResponseWriter, r *http.Request) {
	feed := api.RefData.Advisories()
	if feed == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "advisory data not loaded yet")
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(feed, api.Clock))
}
