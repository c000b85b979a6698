package restapi

import (
	"encoding/json"
	"net/http"

	"railwatch.transitlabs.org/internal/logging"
	"railwatch.transitlabs.org/internal/models"
)

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthy := api.Tracker.Healthy()

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	setJSONResponseType(w)
	w.WriteHeader(code)

	response := models.ResponseModel{
		Code:        code,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Text:        status,
		Version:     2,
		Data: map[string]any{
			"feedHealthy": healthy,
			"lastUpdated": api.Tracker.LastUpdated().UnixMilli(),
			"trainCount":  len(api.Tracker.Trains()),
			"environment": api.Config.Env.String(),
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.Logger, "failed to encode health response", err)
	}
}
