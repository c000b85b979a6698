// Package favorites maintains the user's saved station pairs and keeps a
// fresh next-to-arrive result set for each of them.
//
// All state lives on a single coordinating goroutine: commands, timer ticks,
// and fetch completions are serialized through its select loop, so the maps
// need no locks. Fetches themselves run on their own goroutines, in parallel
// across pairs, and post results back to the loop tagged with the generation
// they were started under; results from before a favorites change carry a
// stale generation and are discarded.
package favorites

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"railwatch.transitlabs.org/internal/blobstore"
	"railwatch.transitlabs.org/internal/logging"
	"railwatch.transitlabs.org/internal/metrics"
	"railwatch.transitlabs.org/internal/models"
)

const (
	defaultRefreshInterval = 5 * time.Second
	defaultResultsPerPair  = 3
	fetchTimeout           = 15 * time.Second
)

// Fetcher is the prediction source. *railapi.Client satisfies it.
type Fetcher interface {
	NextTrains(ctx context.Context, start, end string, n int) ([]models.NextTrain, error)
}

// Config holds favorites manager settings.
type Config struct {
	RefreshInterval time.Duration
	ResultsPerPair  int
	// FetchesPerSecond caps outbound prediction fetches across all pairs.
	// Zero means unlimited.
	FetchesPerSecond int
}

// Manager owns the favorites list and its per-pair results.
type Manager struct {
	config  Config
	fetcher Fetcher
	store   *blobstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter

	commands    chan command
	completions chan completion

	// Loop-owned state. Touched only by the run goroutine.
	favorites  []models.StationPair
	results    map[string][]models.NextTrain
	inFlight   map[string]bool
	generation uint64

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

type command struct {
	kind    commandKind
	pair    models.StationPair
	reply   chan error
	listOut chan []models.StationPair
	mapOut  chan map[string][]models.NextTrain
}

type commandKind int

const (
	cmdAdd commandKind = iota
	cmdRemove
	cmdRefresh
	cmdList
	cmdResults
)

type completion struct {
	generation uint64
	key        string
	arrivals   []models.NextTrain
}

// NewManager creates a favorites manager. store may be nil (no persistence,
// used by tests); when present, the saved favorites list is loaded
// immediately. metrics may be nil.
func NewManager(config Config, fetcher Fetcher, store *blobstore.Store, m *metrics.Metrics, logger *slog.Logger) (*Manager, error) {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = defaultRefreshInterval
	}
	if config.ResultsPerPair <= 0 {
		config.ResultsPerPair = defaultResultsPerPair
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if config.FetchesPerSecond > 0 {
		limit = rate.Limit(config.FetchesPerSecond)
	}

	manager := &Manager{
		config:       config,
		fetcher:      fetcher,
		store:        store,
		logger:       logger.With(slog.String("component", "favorites_manager")),
		metrics:      m,
		limiter:      rate.NewLimiter(limit, maxInt(config.FetchesPerSecond, 1)),
		commands:     make(chan command),
		completions:  make(chan completion, 16),
		results:      make(map[string][]models.NextTrain),
		inFlight:     make(map[string]bool),
		shutdownChan: make(chan struct{}),
	}

	if store != nil {
		saved, err := store.Favorites(context.Background())
		if err != nil {
			return nil, err
		}
		manager.favorites = saved
	}

	return manager, nil
}

// Start launches the coordinating loop and immediately refreshes any
// favorites loaded from the store.
func (manager *Manager) Start() {
	manager.wg.Add(1)
	go manager.run()
}

// Shutdown stops the loop. It is safe to call whether or not Start ran.
// In-flight fetches run to completion; their results are discarded.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() { close(manager.shutdownChan) })
	manager.wg.Wait()
}

func (manager *Manager) run() {
	defer manager.wg.Done()

	ticker := time.NewTicker(manager.config.RefreshInterval)
	defer ticker.Stop()

	manager.updatePairGauge()
	manager.refreshAll()

	for {
		select {
		case <-manager.shutdownChan:
			logging.LogOperation(manager.logger, "shutting_down_favorites_refresh")
			return
		case cmd := <-manager.commands:
			manager.handle(cmd)
		case comp := <-manager.completions:
			manager.applyCompletion(comp)
		case <-ticker.C:
			manager.refreshAll()
		}
	}
}

func (manager *Manager) handle(cmd command) {
	switch cmd.kind {
	case cmdAdd:
		cmd.reply <- manager.add(cmd.pair)
	case cmdRemove:
		cmd.reply <- manager.remove(cmd.pair)
	case cmdRefresh:
		manager.refresh(cmd.pair)
		cmd.reply <- nil
	case cmdList:
		out := make([]models.StationPair, len(manager.favorites))
		copy(out, manager.favorites)
		cmd.listOut <- out
	case cmdResults:
		out := make(map[string][]models.NextTrain, len(manager.results))
		for key, arrivals := range manager.results {
			out[key] = arrivals
		}
		cmd.mapOut <- out
	}
}

// add appends a favorite and resets accumulated state. Adding an existing
// pair is a no-op.
func (manager *Manager) add(pair models.StationPair) error {
	for _, existing := range manager.favorites {
		if existing == pair {
			return nil
		}
	}
	manager.favorites = append(manager.favorites, pair)
	if err := manager.persist(); err != nil {
		return err
	}
	manager.resetAndRefresh()
	return nil
}

// remove drops a favorite and resets accumulated state. Removing an unknown
// pair is a no-op.
func (manager *Manager) remove(pair models.StationPair) error {
	kept := manager.favorites[:0]
	removed := false
	for _, existing := range manager.favorites {
		if existing == pair {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return nil
	}
	manager.favorites = kept
	if err := manager.persist(); err != nil {
		return err
	}
	manager.resetAndRefresh()
	return nil
}

// resetAndRefresh implements the clear-on-change rule: any favorites-set
// change discards all accumulated results and in-flight bookkeeping (a
// removed-then-re-added pair must not resurrect its old value), bumps the
// generation so late completions are recognized as stale, then refreshes
// every current favorite.
func (manager *Manager) resetAndRefresh() {
	manager.generation++
	manager.results = make(map[string][]models.NextTrain)
	manager.inFlight = make(map[string]bool)
	manager.updatePairGauge()
	manager.refreshAll()
}

func (manager *Manager) refreshAll() {
	for _, pair := range manager.favorites {
		manager.refresh(pair)
	}
}

// refresh starts a fetch for the pair unless one is already outstanding:
// at most one in-flight fetch per pair, while different pairs fetch in
// parallel.
func (manager *Manager) refresh(pair models.StationPair) {
	key := pair.Key()
	if manager.inFlight[key] {
		if manager.metrics != nil {
			manager.metrics.FavoriteRefreshesTotal.WithLabelValues(metrics.StatusDeduped).Inc()
		}
		return
	}
	manager.inFlight[key] = true

	generation := manager.generation
	manager.wg.Add(1)
	go manager.fetch(generation, pair)
}

func (manager *Manager) fetch(generation uint64, pair models.StationPair) {
	defer manager.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	arrivals, err := manager.fetchLimited(ctx, pair)
	if err != nil {
		logging.LogError(manager.logger, "failed to refresh favorite, storing empty result", err,
			slog.String("pair", pair.Key()))
		if manager.metrics != nil {
			manager.metrics.FavoriteRefreshesTotal.WithLabelValues(metrics.StatusFailure).Inc()
		}
		arrivals = []models.NextTrain{}
	} else if manager.metrics != nil {
		manager.metrics.FavoriteRefreshesTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	}

	select {
	case manager.completions <- completion{generation: generation, key: pair.Key(), arrivals: arrivals}:
	case <-manager.shutdownChan:
	}
}

func (manager *Manager) fetchLimited(ctx context.Context, pair models.StationPair) ([]models.NextTrain, error) {
	if err := manager.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return manager.fetcher.NextTrains(ctx, pair.Start, pair.End, manager.config.ResultsPerPair)
}

// applyCompletion applies one finished fetch on the coordinating goroutine.
// Completions started under an older generation belong to a favorites set
// that no longer exists and are dropped whole: their inFlight entries were
// already cleared by resetAndRefresh.
func (manager *Manager) applyCompletion(comp completion) {
	if comp.generation != manager.generation {
		return
	}
	delete(manager.inFlight, comp.key)

	for _, pair := range manager.favorites {
		if pair.Key() == comp.key {
			manager.results[comp.key] = comp.arrivals
			return
		}
	}
	// Pair vanished under the same generation; nothing to store. Keeping the
	// results map favorite-only is the invariant callers rely on.
}

func (manager *Manager) persist() error {
	if manager.store == nil {
		return nil
	}
	return manager.store.SaveFavorites(context.Background(), manager.favorites)
}

func (manager *Manager) updatePairGauge() {
	if manager.metrics != nil {
		manager.metrics.FavoritePairs.Set(float64(len(manager.favorites)))
	}
}

// Add saves a new favorite pair and triggers an immediate refresh of all
// favorites.
func (manager *Manager) Add(pair models.StationPair) error {
	reply := make(chan error, 1)
	if !manager.send(command{kind: cmdAdd, pair: pair, reply: reply}) {
		return nil
	}
	return <-reply
}

// Remove deletes a favorite pair; its results entry disappears with it.
func (manager *Manager) Remove(pair models.StationPair) error {
	reply := make(chan error, 1)
	if !manager.send(command{kind: cmdRemove, pair: pair, reply: reply}) {
		return nil
	}
	return <-reply
}

// Refresh triggers a fetch for one pair, subject to the in-flight guard.
func (manager *Manager) Refresh(pair models.StationPair) {
	reply := make(chan error, 1)
	if manager.send(command{kind: cmdRefresh, pair: pair, reply: reply}) {
		<-reply
	}
}

// Favorites returns a copy of the current favorites list.
func (manager *Manager) Favorites() []models.StationPair {
	out := make(chan []models.StationPair, 1)
	if !manager.send(command{kind: cmdList, listOut: out}) {
		return nil
	}
	return <-out
}

// Results returns a copy of the per-pair results map.
func (manager *Manager) Results() map[string][]models.NextTrain {
	out := make(chan map[string][]models.NextTrain, 1)
	if !manager.send(command{kind: cmdResults, mapOut: out}) {
		return nil
	}
	return <-out
}

// ResultsFor returns the latest arrivals for one pair.
func (manager *Manager) ResultsFor(pair models.StationPair) []models.NextTrain {
	return manager.Results()[pair.Key()]
}

// send delivers a command to the loop; it reports false if the manager has
// shut down.
func (manager *Manager) send(cmd command) bool {
	select {
	case manager.commands <- cmd:
		return true
	case <-manager.shutdownChan:
		return false
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
