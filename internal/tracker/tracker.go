// Package tracker owns the live train snapshot. A single manager polls the
// vendor train-view feed on a fixed interval, replaces the snapshot wholesale
// on every successful tick, and republishes it to subscribers. Failed ticks
// are logged and skipped; the previous snapshot stays visible and the next
// tick is the only retry.
package tracker

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tidwall/rtree"
	"railwatch.transitlabs.org/internal/logging"
	"railwatch.transitlabs.org/internal/metrics"
	"railwatch.transitlabs.org/internal/models"
	"railwatch.transitlabs.org/internal/utils"
)

const (
	defaultRefreshInterval = 10 * time.Second
	fetchTimeout           = 15 * time.Second

	// trackHistoryLimit bounds the per-train position trail.
	trackHistoryLimit = 60
)

// TrainFetcher is the feed side of the manager. *railapi.Client satisfies it.
type TrainFetcher interface {
	Trains(ctx context.Context) ([]models.Train, error)
}

// Config holds tracker settings.
type Config struct {
	RefreshInterval time.Duration
}

// Manager polls the live feed and owns the current train snapshot.
// The snapshot is single-writer (the poll loop), multi-reader.
type Manager struct {
	config  Config
	fetcher TrainFetcher
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu           sync.RWMutex
	trains       []models.Train
	trainLookup  map[string]int
	spatialIndex *rtree.RTreeG[string]
	tracks       map[string][][2]float64
	lastUpdated  time.Time

	subMu       sync.Mutex
	subscribers []chan []models.Train

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewManager creates a Manager polling via fetcher. metrics may be nil.
func NewManager(config Config, fetcher TrainFetcher, m *metrics.Metrics, logger *slog.Logger) *Manager {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = defaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config:       config,
		fetcher:      fetcher,
		logger:       logger.With(slog.String("component", "train_tracker")),
		metrics:      m,
		trainLookup:  make(map[string]int),
		spatialIndex: &rtree.RTreeG[string]{},
		tracks:       make(map[string][][2]float64),
		shutdownChan: make(chan struct{}),
	}
}

// Start begins polling: an immediate fetch, then one per refresh interval
// until Shutdown.
func (manager *Manager) Start() {
	manager.wg.Add(1)
	go manager.pollLoop()
}

// Shutdown stops the poll loop and waits for it to exit. An in-flight fetch
// runs to completion but its result is discarded.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
	})
	manager.wg.Wait()
}

func (manager *Manager) pollLoop() {
	defer manager.wg.Done()

	logger := manager.logger.With(slog.String("goroutine", "train_feed_updater"))

	ticker := time.NewTicker(manager.config.RefreshInterval)
	defer ticker.Stop()

	// First fetch happens immediately so the snapshot is warm before the
	// first tick fires.
	manager.pollOnce(logger)

	for {
		select {
		case <-ticker.C:
			manager.pollOnce(logger)
		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_train_feed_updates")
			return
		}
	}
}

func (manager *Manager) pollOnce(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	manager.RefreshNow(ctx)
}

// RefreshNow fetches the feed once and applies the result. A decode or
// network failure skips the tick: it is logged and the previous snapshot
// remains published.
func (manager *Manager) RefreshNow(ctx context.Context) {
	logger := logging.FromContext(ctx)

	trains, err := manager.fetcher.Trains(ctx)
	if err != nil {
		logging.LogError(logger, "failed to fetch train feed, keeping previous snapshot", err)
		if manager.metrics != nil {
			manager.metrics.FeedPollsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		}
		return
	}

	// The manager may have been torn down while the fetch was in flight; in
	// that case the result is discarded rather than applied.
	select {
	case <-manager.shutdownChan:
		return
	default:
	}

	manager.apply(trains)

	if manager.metrics != nil {
		manager.metrics.FeedPollsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
		manager.metrics.FeedTrains.Set(float64(len(trains)))
	}

	manager.publish(trains)
}

func (manager *Manager) apply(trains []models.Train) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	manager.trains = trains
	manager.lastUpdated = time.Now()

	manager.trainLookup = make(map[string]int, len(trains))
	index := &rtree.RTreeG[string]{}
	for i, train := range trains {
		manager.trainLookup[train.TrainNo] = i
		if train.Lat != 0 || train.Lon != 0 {
			point := [2]float64{train.Lon, train.Lat}
			index.Insert(point, point, train.TrainNo)
		}
	}
	manager.spatialIndex = index

	manager.appendTracks(trains)
}

// appendTracks extends each train's position trail and drops trails for
// trains no longer in the feed. Caller holds the write lock.
func (manager *Manager) appendTracks(trains []models.Train) {
	present := make(map[string]bool, len(trains))
	for _, train := range trains {
		present[train.TrainNo] = true
		if train.Lat == 0 && train.Lon == 0 {
			continue
		}
		trail := manager.tracks[train.TrainNo]
		point := [2]float64{train.Lat, train.Lon}
		if len(trail) > 0 && trail[len(trail)-1] == point {
			continue
		}
		trail = append(trail, point)
		if len(trail) > trackHistoryLimit {
			trail = trail[len(trail)-trackHistoryLimit:]
		}
		manager.tracks[train.TrainNo] = trail
	}

	for no := range manager.tracks {
		if !present[no] {
			delete(manager.tracks, no)
		}
	}
}

// Trains returns the current snapshot. Callers must not mutate it.
func (manager *Manager) Trains() []models.Train {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.trains
}

// TrainByNo returns the live train with the given number.
func (manager *Manager) TrainByNo(no string) (models.Train, bool) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	i, ok := manager.trainLookup[no]
	if !ok {
		return models.Train{}, false
	}
	return manager.trains[i], true
}

// LastUpdated returns the time of the last successful feed application.
func (manager *Manager) LastUpdated() time.Time {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.lastUpdated
}

// Healthy reports whether at least one feed fetch has succeeded.
func (manager *Manager) Healthy() bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return !manager.lastUpdated.IsZero()
}

// TrainsNear returns up to limit trains within radiusMeters of the given
// position, closest first. Trains without a GPS fix are excluded.
func (manager *Manager) TrainsNear(lat, lon, radiusMeters float64, limit int) []models.Train {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	bounds := utils.CalculateBounds(lat, lon, radiusMeters)

	var numbers []string
	manager.spatialIndex.Search(
		[2]float64{bounds.MinLon, bounds.MinLat},
		[2]float64{bounds.MaxLon, bounds.MaxLat},
		func(min, max [2]float64, no string) bool {
			numbers = append(numbers, no)
			return true
		},
	)

	var nearby []models.Train
	for _, no := range numbers {
		train := manager.trains[manager.trainLookup[no]]
		if utils.Distance(lat, lon, train.Lat, train.Lon) <= radiusMeters {
			nearby = append(nearby, train)
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return utils.Distance(lat, lon, nearby[i].Lat, nearby[i].Lon) <
			utils.Distance(lat, lon, nearby[j].Lat, nearby[j].Lon)
	})

	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby
}

// Subscribe returns a channel receiving each new snapshot. Slow subscribers
// miss intermediate snapshots rather than block the poll loop.
func (manager *Manager) Subscribe() <-chan []models.Train {
	ch := make(chan []models.Train, 1)
	manager.subMu.Lock()
	manager.subscribers = append(manager.subscribers, ch)
	manager.subMu.Unlock()
	return ch
}

func (manager *Manager) publish(trains []models.Train) {
	manager.subMu.Lock()
	defer manager.subMu.Unlock()
	for _, ch := range manager.subscribers {
		select {
		case ch <- trains:
		default:
			// Drop the stale snapshot so the latest one can be delivered.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- trains:
			default:
			}
		}
	}
}
