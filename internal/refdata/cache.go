// Package refdata holds the slow-moving reference datasets (schedules, stop
// list, advisories) with a cache-first, stale-while-revalidate loading
// strategy: a cached payload is decoded and served immediately while a
// background fetch may later replace it. Staleness is unbounded; only
// explicit refresh calls revalidate.
package refdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"railwatch.transitlabs.org/internal/blobstore"
	"railwatch.transitlabs.org/internal/logging"
	"railwatch.transitlabs.org/internal/metrics"
	"railwatch.transitlabs.org/internal/models"
)

// Kind identifies one reference dataset.
type Kind string

const (
	KindSchedules  Kind = "schedules"
	KindStops      Kind = "stops"
	KindAdvisories Kind = "advisories"
)

const refreshTimeout = 30 * time.Second

// Fetcher is the network side of the cache. *railapi.Client satisfies it.
type Fetcher interface {
	Schedules(ctx context.Context) (models.ScheduleData, error)
	Stops(ctx context.Context) ([]string, error)
	Advisories(ctx context.Context) (*models.AdvisoryFeed, error)
}

// Cache is an explicitly constructed reference-data cache. No package-level
// singleton: each instance owns its state, which keeps tests isolated.
type Cache struct {
	store   *blobstore.Store
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu         sync.RWMutex
	schedules  models.ScheduleData
	stops      []string
	advisories *models.AdvisoryFeed

	updates chan Kind
	wg      sync.WaitGroup
}

// New creates a Cache over the given blob store and fetcher. m may be nil.
func New(store *blobstore.Store, fetcher Fetcher, m *metrics.Metrics, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:   store,
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "refdata_cache")),
		metrics: m,
		updates: make(chan Kind, 8),
	}
}

// Load performs the cold-start sequence: decode whatever cached payloads
// exist for immediate use, then revalidate every dataset in the background
// without blocking the caller. A cached blob that fails to decode is treated
// as a cache miss, not an error.
func (c *Cache) Load(ctx context.Context) {
	if payload, err := c.store.Get(ctx, blobstore.SlotSchedules); err == nil {
		var schedules models.ScheduleData
		if decodeErr := decodeBlob(payload, &schedules); decodeErr == nil {
			c.mu.Lock()
			c.schedules = schedules
			c.mu.Unlock()
		} else {
			c.logger.Debug("cached schedules blob unreadable, treating as cache miss",
				slog.Any("error", decodeErr))
		}
	}

	if payload, err := c.store.Get(ctx, blobstore.SlotStops); err == nil {
		var stops []string
		if decodeErr := decodeBlob(payload, &stops); decodeErr == nil {
			c.mu.Lock()
			c.stops = stops
			c.mu.Unlock()
		} else {
			c.logger.Debug("cached stops blob unreadable, treating as cache miss",
				slog.Any("error", decodeErr))
		}
	}

	for _, kind := range []Kind{KindSchedules, KindStops, KindAdvisories} {
		c.wg.Add(1)
		go func(kind Kind) {
			defer c.wg.Done()
			refreshCtx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()
			c.Refresh(refreshCtx, kind)
		}(kind)
	}
}

// Refresh fetches one dataset from the network. On success the cached blob is
// overwritten and the decoded value republished; on failure the cache is left
// untouched and the error logged.
func (c *Cache) Refresh(ctx context.Context, kind Kind) {
	switch kind {
	case KindSchedules:
		schedules, err := c.fetcher.Schedules(ctx)
		if err != nil {
			logging.LogError(c.logger, "failed to refresh schedules", err)
			c.countRefresh(kind, metrics.StatusFailure)
			return
		}
		c.storeBlob(ctx, blobstore.SlotSchedules, schedules)
		c.mu.Lock()
		c.schedules = schedules
		c.mu.Unlock()
	case KindStops:
		stops, err := c.fetcher.Stops(ctx)
		if err != nil {
			logging.LogError(c.logger, "failed to refresh stops", err)
			c.countRefresh(kind, metrics.StatusFailure)
			return
		}
		c.storeBlob(ctx, blobstore.SlotStops, stops)
		c.mu.Lock()
		c.stops = stops
		c.mu.Unlock()
	case KindAdvisories:
		feed, err := c.fetcher.Advisories(ctx)
		if err != nil {
			logging.LogError(c.logger, "failed to refresh advisories", err)
			c.countRefresh(kind, metrics.StatusFailure)
			return
		}
		c.mu.Lock()
		c.advisories = feed
		c.mu.Unlock()
	default:
		return
	}

	c.countRefresh(kind, metrics.StatusSuccess)
	c.notify(kind)
}

func (c *Cache) countRefresh(kind Kind, status string) {
	if c.metrics != nil {
		c.metrics.CacheRefreshesTotal.WithLabelValues(string(kind), status).Inc()
	}
}

// Wait blocks until background refreshes started by Load have finished.
// Intended for shutdown and tests.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Updates returns a channel that receives a Kind after each successful
// refresh. Notifications are dropped if the receiver is slow.
func (c *Cache) Updates() <-chan Kind {
	return c.updates
}

// Schedules returns the current schedule dataset, which may be nil before the
// first successful load.
func (c *Cache) Schedules() models.ScheduleData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schedules
}

// Stops returns the current reference stop list.
func (c *Cache) Stops() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stops
}

// Advisories returns the most recently fetched advisories, or nil.
func (c *Cache) Advisories() *models.AdvisoryFeed {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.advisories
}

func (c *Cache) notify(kind Kind) {
	select {
	case c.updates <- kind:
	default:
	}
}

func (c *Cache) storeBlob(ctx context.Context, slot string, value any) {
	payload, err := encodeBlob(value)
	if err != nil {
		logging.LogError(c.logger, "failed to encode cache blob", err, slog.String("slot", slot))
		return
	}
	if err := c.store.Put(ctx, slot, payload); err != nil {
		logging.LogError(c.logger, "failed to write cache blob", err, slog.String("slot", slot))
	}
}

// encodeBlob stores values as gzip-compressed JSON; the schedule payload in
// particular compresses to a fraction of its raw size.
func encodeBlob(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshaling blob: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("compressing blob: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compressing blob: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeBlob(payload []byte, out any) error {
	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("decompressing blob: %w", err)
	}
	defer func() { _ = gz.Close() }()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return fmt.Errorf("decompressing blob: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshaling blob: %w", err)
	}
	return nil
}
