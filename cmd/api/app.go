package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"railwatch.transitlabs.org/internal/app"
	"railwatch.transitlabs.org/internal/appconf"
	"railwatch.transitlabs.org/internal/blobstore"
	"railwatch.transitlabs.org/internal/clock"
	"railwatch.transitlabs.org/internal/favorites"
	"railwatch.transitlabs.org/internal/metrics"
	"railwatch.transitlabs.org/internal/railapi"
	"railwatch.transitlabs.org/internal/refdata"
	"railwatch.transitlabs.org/internal/restapi"
	"railwatch.transitlabs.org/internal/tracker"
	"railwatch.transitlabs.org/internal/webui"
)

// ParseAPIKeys splits a comma-separated key list, trimming whitespace and
// dropping empty entries.
func ParseAPIKeys(input string) []string {
	keys := []string{}
	for _, key := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

func newLogger(cfg appconf.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// BuildApplication constructs the application and all of its components.
// Nothing is started; callers own the Start/Shutdown lifecycle.
func BuildApplication(cfg appconf.Config, feedCfg app.FeedConfig) (*app.Application, error) {
	logger := newLogger(cfg)

	store, err := blobstore.Open(feedCfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("opening blob store at %s: %w", feedCfg.DataPath, err)
	}

	railClient := railapi.NewClient(feedCfg.BaseURL, logger)
	appMetrics := metrics.New()

	refCache := refdata.New(store, railClient, appMetrics, logger)
	trackerManager := tracker.NewManager(tracker.Config{
		RefreshInterval: feedCfg.FeedInterval,
	}, railClient, appMetrics, logger)

	favoritesManager, err := favorites.NewManager(favorites.Config{
		RefreshInterval: feedCfg.FavoritesInterval,
	}, railClient, store, appMetrics, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("restoring favorites: %w", err)
	}

	return &app.Application{
		Config:     cfg,
		FeedConfig: feedCfg,
		Logger:     logger,
		Clock:      clock.RealClock{},
		Metrics:    appMetrics,
		RailClient: railClient,
		Store:      store,
		RefData:    refCache,
		Tracker:    trackerManager,
		Favorites:  favoritesManager,
	}, nil
}

// CreateServer assembles the route table and middleware chain into an
// http.Server. The returned RestAPI owns application shutdown.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.New(coreApp)
	webUI := webui.New(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	webUI.SetRoutes(mux)

	var handler http.Handler = mux
	handler = restapi.MetricsHandler(coreApp.Metrics)(handler)
	handler = restapi.NewRequestLoggingMiddleware(coreApp.Logger)(handler)
	handler = restapi.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if cfg.RateLimit > 0 {
		rateLimiter := restapi.NewRateLimitMiddleware(cfg.RateLimit, time.Second, nil, coreApp.Clock)
		srv.Handler = rateLimiter.Handler()(srv.Handler)
		srv.RegisterOnShutdown(rateLimiter.Stop)
	}

	return srv, api
}
