// Package app wires the application's components together for handlers,
// middleware, and the debug UI.
package app

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"railwatch.transitlabs.org/internal/appconf"
	"railwatch.transitlabs.org/internal/blobstore"
	"railwatch.transitlabs.org/internal/clock"
	"railwatch.transitlabs.org/internal/favorites"
	"railwatch.transitlabs.org/internal/logging"
	"railwatch.transitlabs.org/internal/metrics"
	"railwatch.transitlabs.org/internal/railapi"
	"railwatch.transitlabs.org/internal/refdata"
	"railwatch.transitlabs.org/internal/tracker"
)

// FeedConfig holds the vendor feed settings.
type FeedConfig struct {
	BaseURL           string
	DataPath          string
	FeedInterval      time.Duration
	FavoritesInterval time.Duration
}

// Application holds the dependencies for HTTP handlers, helpers, and
// middleware.
type Application struct {
	Config     appconf.Config
	FeedConfig FeedConfig
	Logger     *slog.Logger
	Clock      clock.Clock
	Metrics    *metrics.Metrics

	RailClient *railapi.Client
	Store      *blobstore.Store
	RefData    *refdata.Cache
	Tracker    *tracker.Manager
	Favorites  *favorites.Manager
}

// Start brings up the background machinery: the reference-data cold start and
// both polling managers.
func (app *Application) Start() {
	ctx := logging.WithLogger(context.Background(), app.Logger)
	app.RefData.Load(ctx)
	app.Tracker.Start()
	app.Favorites.Start()
}

// Shutdown stops the pollers and closes local persistence. In-flight fetches
// finish on their own and their results are discarded.
func (app *Application) Shutdown() {
	app.Tracker.Shutdown()
	app.Favorites.Shutdown()
	app.RefData.Wait()
	if app.Store != nil {
		_ = app.Store.Close()
	}
}

// RequestHasInvalidAPIKey checks the key query parameter against the
// configured API keys.
func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	return app.IsInvalidAPIKey(r.URL.Query().Get("key"))
}

// IsInvalidAPIKey reports whether key is absent from the configured API keys.
func (app *Application) IsInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}
	for _, validKey := range app.Config.ApiKeys {
		// Constant-time comparison to prevent timing attacks.
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return false
		}
	}
	return true
}
