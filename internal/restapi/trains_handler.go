package restapi

import (
	"net/http"
	"strconv"

	"railwatch.transitlabs.org/internal/models"
)

func (api *RestAPI) trainsHandler(w http.ResponseWriter, r *http.Request) {
	trains := api.Tracker.Trains()
	response := models.NewListResponse(map[string]any{
		"trains":      trains,
		"lastUpdated": api.Tracker.LastUpdated().UnixMilli(),
	}, api.Clock)
	api.sendResponse(w, r, response)
}

func (api *RestAPI) trainHandler(w http.ResponseWriter, r *http.Request) {
	trainNo := pathID(r, "id")
	if trainNo == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"id": {"train number is required"},
		})
		return
	}

	train, ok := api.Tracker.TrainByNo(trainNo)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	entry := map[string]any{
		"train":          train,
		"equipmentClass": train.EquipmentClass(),
	}
	if encoded, hasTrack := api.Tracker.TrackPolyline(trainNo); hasTrack {
		entry["track"] = encoded
	}

	api.sendResponse(w, r, models.NewEntryResponse(entry, api.Clock))
}

func (api *RestAPI) trainsNearHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(query.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		api.validationErrorResponse(w, r, map[string][]string{
			"lat": {"lat and lon must be valid coordinates"},
		})
		return
	}

	radius := 10000.0
	if raw := query.Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			api.validationErrorResponse(w, r, map[string][]string{
				"radius": {"radius must be a positive number of meters"},
			})
			return
		}
		radius = parsed
	}

	limit := 10
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.validationErrorResponse(w, r, map[string][]string{
				"limit": {"limit must be a positive integer"},
			})
			return
		}
		limit = parsed
	}

	trains := api.Tracker.TrainsNear(lat, lon, radius, limit)
	api.sendResponse(w, r, models.NewListResponse(map[string]any{"trains": trains}, api.Clock))
}
