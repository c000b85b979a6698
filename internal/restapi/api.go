// Package restapi exposes the live snapshots, correlation results, and
// reference data over a small JSON API.
package restapi

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"railwatch.transitlabs.org/internal/app"
)

// RestAPI bundles the application with its HTTP surface.
type RestAPI struct {
	*app.Application
}

// New creates the API over the given application.
func New(application *app.Application) *RestAPI {
	return &RestAPI{Application: application}
}

// SetRoutes registers all endpoints on mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rail/trains", api.withAPIKey(api.trainsHandler))
	mux.HandleFunc("GET /api/rail/train/{id}", api.withAPIKey(api.trainHandler))
	mux.HandleFunc("GET /api/rail/trains-near", api.withAPIKey(api.trainsNearHandler))
	mux.HandleFunc("GET /api/rail/next-trains", api.withAPIKey(api.nextTrainsHandler))
	mux.HandleFunc("GET /api/rail/arrivals", api.withAPIKey(api.arrivalsHandler))
	mux.HandleFunc("GET /api/rail/schedules/{line}", api.withAPIKey(api.schedulesHandler))
	mux.HandleFunc("GET /api/rail/stops", api.withAPIKey(api.stopsHandler))
	mux.HandleFunc("GET /api/rail/advisories", api.withAPIKey(api.advisoriesHandler))
	mux.HandleFunc("GET /api/rail/favorites", api.withAPIKey(api.favoritesListHandler))
	mux.HandleFunc("POST /api/rail/favorites", api.withAPIKey(api.favoritesAddHandler))
	mux.HandleFunc("DELETE /api/rail/favorites", api.withAPIKey(api.favoritesRemoveHandler))

	mux.HandleFunc("GET /health", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

func (api *RestAPI) withAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.sendUnauthorized(w, r)
			return
		}
		next(w, r)
	}
}

// pathID returns the {id} path segment with any trailing ".json" stripped,
// so /api/rail/train/514.json and /api/rail/train/514 both work.
func pathID(r *http.Request, name string) string {
	return strings.TrimSuffix(r.PathValue(name), ".json")
}
