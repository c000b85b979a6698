package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"railwatch.transitlabs.org/internal/app"
	"railwatch.transitlabs.org/internal/appconf"
)

func main() {
	var cfg appconf.Config
	var feedCfg app.FeedConfig
	var envFlag, apiKeysFlag string

	flag.IntVar(&cfg.Port, "port", 4000, "API server port")
	flag.StringVar(&envFlag, "env", "development", "Environment (development|test|production)")
	flag.StringVar(&apiKeysFlag, "api-keys", "test", "Comma-separated list of valid API keys")
	flag.IntVar(&cfg.RateLimit, "rate-limit", 100, "Requests per second allowed per API key (0 disables)")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	flag.StringVar(&feedCfg.BaseURL, "feed-url", "https://www3.septa.org/api", "Vendor feed base URL")
	flag.StringVar(&feedCfg.DataPath, "data-path", "./railwatch.db", "Path to the local SQLite cache")
	flag.DurationVar(&feedCfg.FeedInterval, "feed-interval", 10*time.Second, "Live train feed poll interval")
	flag.DurationVar(&feedCfg.FavoritesInterval, "favorites-interval", 30*time.Second, "Favorites refresh interval")
	flag.Parse()

	cfg.Env = appconf.EnvFlagToEnvironment(envFlag)
	cfg.ApiKeys = ParseAPIKeys(apiKeysFlag)

	coreApp, err := BuildApplication(cfg, feedCfg)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	if err := runServer(coreApp, cfg); err != nil {
		coreApp.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// runServer starts the background pollers and the HTTP server, then blocks
// until SIGINT/SIGTERM triggers a graceful shutdown.
func runServer(coreApp *app.Application, cfg appconf.Config) error {
	srv, api := CreateServer(coreApp, cfg)
	defer api.Shutdown()

	coreApp.Start()

	shutdownErr := make(chan error)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		coreApp.Logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctx)
	}()

	coreApp.Logger.Info("starting server",
		slog.String("addr", srv.Addr),
		slog.String("env", cfg.Env.String()))

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownErr; err != nil {
		return err
	}

	coreApp.Logger.Info("stopped server")
	return nil
}
