// Package metrics provides Prometheus metrics for the railwatch application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Live feed metrics
	FeedPollsTotal *prometheus.CounterVec
	FeedTrains     prometheus.Gauge

	// Favorites refresh metrics
	FavoriteRefreshesTotal *prometheus.CounterVec
	FavoritePairs          prometheus.Gauge

	// Reference data metrics
	CacheRefreshesTotal *prometheus.CounterVec
}

// New creates and registers all application metrics with a new registry.
// Each instance gets its own registry so tests stay isolated.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railwatch_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	feedPollsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railwatch_feed_polls_total",
			Help: "Live train feed poll attempts by outcome",
		},
		[]string{"status"},
	)

	feedTrains := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railwatch_feed_trains",
		Help: "Number of trains in the current live snapshot",
	})

	favoriteRefreshesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railwatch_favorite_refreshes_total",
			Help: "Favorite pair refresh attempts by outcome",
		},
		[]string{"status"},
	)

	favoritePairs := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railwatch_favorite_pairs",
		Help: "Number of station pairs currently tracked as favorites",
	})

	cacheRefreshesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railwatch_cache_refreshes_total",
			Help: "Reference data refresh attempts by dataset and outcome",
		},
		[]string{"kind", "status"},
	)

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		feedPollsTotal,
		feedTrains,
		favoriteRefreshesTotal,
		favoritePairs,
		cacheRefreshesTotal,
	)

	return &Metrics{
		Registry:               registry,
		HTTPRequestsTotal:      httpRequestsTotal,
		HTTPRequestDuration:    httpRequestDuration,
		FeedPollsTotal:         feedPollsTotal,
		FeedTrains:             feedTrains,
		FavoriteRefreshesTotal: favoriteRefreshesTotal,
		FavoritePairs:          favoritePairs,
		CacheRefreshesTotal:    cacheRefreshesTotal,
	}
}

// Outcome labels shared by the counters above.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusDeduped = "deduped"
)
