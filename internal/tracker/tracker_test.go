package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railwatch.transitlabs.org/internal/metrics"
	"railwatch.transitlabs.org/internal/models"
)

type fakeFetcher struct {
	mu     sync.Mutex
	trains []models.Train
	err    error
	calls  int
}

func (f *fakeFetcher) Trains(ctx context.Context) ([]models.Train, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.trains, nil
}

func (f *fakeFetcher) set(trains []models.Train, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trains = trains
	f.err = err
}

func testTrain(no string, lat, lon float64) models.Train {
	return models.Train{TrainNo: no, Lat: lat, Lon: lon, Line: "Airport"}
}

func newTestManager(fetcher TrainFetcher) *Manager {
	return NewManager(Config{RefreshInterval: time.Hour}, fetcher, metrics.New(), nil)
}

func TestRefreshNowReplacesSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{testTrain("514", 39.95, -75.16)}}
	manager := newTestManager(fetcher)

	manager.RefreshNow(context.Background())

	trains := manager.Trains()
	require.Len(t, trains, 1)
	assert.Equal(t, "514", trains[0].TrainNo)
	assert.True(t, manager.Healthy())

	fetcher.set([]models.Train{testTrain("900", 40.0, -75.2)}, nil)
	manager.RefreshNow(context.Background())

	trains = manager.Trains()
	require.Len(t, trains, 1)
	assert.Equal(t, "900", trains[0].TrainNo)

	_, found := manager.TrainByNo("514")
	assert.False(t, found, "replaced wholesale, old train gone")
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{testTrain("514", 39.95, -75.16)}}
	manager := newTestManager(fetcher)

	manager.RefreshNow(context.Background())
	require.Len(t, manager.Trains(), 1)
	firstUpdate := manager.LastUpdated()

	fetcher.set(nil, errors.New("feed unreachable"))
	manager.RefreshNow(context.Background())

	assert.Len(t, manager.Trains(), 1, "previous snapshot stays visible")
	assert.Equal(t, firstUpdate, manager.LastUpdated())
}

func TestTrainByNo(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{
		testTrain("514", 39.95, -75.16),
		testTrain("6358", 40.1, -75.3),
	}}
	manager := newTestManager(fetcher)
	manager.RefreshNow(context.Background())

	train, ok := manager.TrainByNo("6358")
	require.True(t, ok)
	assert.Equal(t, "6358", train.TrainNo)

	_, ok = manager.TrainByNo("0000")
	assert.False(t, ok)
}

func TestTrainsNear(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{
		testTrain("close", 39.9540, -75.1678),
		testTrain("nearby", 39.9566, -75.1819),
		testTrain("faraway", 40.3500, -74.6600),
		testTrain("no-fix", 0, 0),
	}}
	manager := newTestManager(fetcher)
	manager.RefreshNow(context.Background())

	near := manager.TrainsNear(39.9539, -75.1677, 5000, 10)

	require.Len(t, near, 2)
	assert.Equal(t, "close", near[0].TrainNo, "closest first")
	assert.Equal(t, "nearby", near[1].TrainNo)
}

func TestTrainsNearLimit(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{
		testTrain("a", 39.954, -75.168),
		testTrain("b", 39.955, -75.169),
		testTrain("c", 39.956, -75.170),
	}}
	manager := newTestManager(fetcher)
	manager.RefreshNow(context.Background())

	near := manager.TrainsNear(39.9539, -75.1677, 5000, 2)
	assert.Len(t, near, 2)
}

func TestTrackPolyline(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{testTrain("514", 39.95, -75.16)}}
	manager := newTestManager(fetcher)

	manager.RefreshNow(context.Background())
	fetcher.set([]models.Train{testTrain("514", 39.96, -75.17)}, nil)
	manager.RefreshNow(context.Background())

	encoded, ok := manager.TrackPolyline("514")
	require.True(t, ok)
	assert.NotEmpty(t, encoded)

	_, ok = manager.TrackPolyline("missing")
	assert.False(t, ok)
}

func TestTrackDroppedWhenTrainLeavesFeed(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{testTrain("514", 39.95, -75.16)}}
	manager := newTestManager(fetcher)
	manager.RefreshNow(context.Background())

	fetcher.set([]models.Train{testTrain("900", 40.0, -75.2)}, nil)
	manager.RefreshNow(context.Background())

	_, ok := manager.TrackPolyline("514")
	assert.False(t, ok)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{testTrain("514", 39.95, -75.16)}}
	manager := newTestManager(fetcher)
	updates := manager.Subscribe()

	manager.RefreshNow(context.Background())

	select {
	case trains := <-updates:
		require.Len(t, trains, 1)
		assert.Equal(t, "514", trains[0].TrainNo)
	case <-time.After(time.Second):
		t.Fatal("expected a published snapshot")
	}
}

func TestSlowSubscriberGetsLatestSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{testTrain("old", 39.95, -75.16)}}
	manager := newTestManager(fetcher)
	updates := manager.Subscribe()

	manager.RefreshNow(context.Background())
	fetcher.set([]models.Train{testTrain("new", 39.96, -75.17)}, nil)
	manager.RefreshNow(context.Background())

	// The subscriber never read the first snapshot; it should see the
	// latest one, not block the poller.
	trains := <-updates
	require.Len(t, trains, 1)
	assert.Equal(t, "new", trains[0].TrainNo)
}

func TestStartPollsImmediately(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{testTrain("514", 39.95, -75.16)}}
	manager := NewManager(Config{RefreshInterval: time.Hour}, fetcher, nil, nil)

	manager.Start()
	defer manager.Shutdown()

	require.Eventually(t, func() bool {
		return len(manager.Trains()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownDiscardsInFlightResult(t *testing.T) {
	fetcher := &fakeFetcher{trains: []models.Train{testTrain("514", 39.95, -75.16)}}
	manager := newTestManager(fetcher)

	manager.Shutdown()
	manager.RefreshNow(context.Background())

	assert.Empty(t, manager.Trains(), "result after teardown is discarded")
}
