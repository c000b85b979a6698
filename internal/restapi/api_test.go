package restapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"railwatch.transitlabs.org/internal/app"
	"railwatch.transitlabs.org/internal/appconf"
	"railwatch.transitlabs.org/internal/blobstore"
	"railwatch.transitlabs.org/internal/clock"
	"railwatch.transitlabs.org/internal/favorites"
	"railwatch.transitlabs.org/internal/railapi"
	"railwatch.transitlabs.org/internal/refdata"
	"railwatch.transitlabs.org/internal/tracker"
)

const trainViewFixture = `[
	{"trainno":"514","lat":"39.9539","lon":"-75.1677","line":"Paoli/Thorndale","dest":"Thorndale","currentstop":"Suburban Station","nextstop":"30th Street Station","consist":"401,402","late":5},
	{"trainno":"900","lat":"40.1230","lon":"-75.3455","line":"Lansdale/Doylestown","dest":"Doylestown","currentstop":"Ambler","nextstop":"Penllyn","consist":"701,702","late":"0"}
]`

const nextToArriveFixture = `[
	{"orig_train":"514","orig_line":"Paoli/Thorndale","orig_departure_time":"4:15PM","orig_arrival_time":"4:45PM","orig_delay":"5 min","isdirect":"true"},
	{"orig_train":"9999","orig_line":"Airport","orig_departure_time":"4:30PM","orig_arrival_time":"5:05PM","orig_delay":"On time","isdirect":"true"}
]`

const schedulesFixture = `{
	"PAO": {
		"mon-fri": {
			"inbound":  [{"trainNo":"514","stops":[{"stop":"Thorndale","time":"3:10PM"},{"stop":"Suburban Station","time":"4:15PM"}]}],
			"outbound": [{"trainNo":"551","stops":[{"stop":"Suburban Station","time":"5:02PM"}]}]
		}
	}
}`

const stopsFixture = `["30th Street Station","Suburban Station","Jefferson Station","Temple University"]`

const advisoriesFixture = `{
	"current": ["PAO"],
	"advisory": [{"title":"Weekend track work","dates_affected":"Aug 30 - Aug 31","description":"Shuttle buses replace trains between Malvern and Thorndale."}]
}`

// newVendorServer serves canned upstream feeds for handler tests.
func newVendorServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	serve := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}
	serve("/TrainView/index.php", trainViewFixture)
	serve("/NextToArrive/index.php", nextToArriveFixture)
	serve("/RRSchedules/index.php", schedulesFixture)
	serve("/RRStops/index.php", stopsFixture)
	serve("/Advisories/index.php", advisoriesFixture)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func createTestApi(t *testing.T) *RestAPI {
	t.Helper()

	vendor := newVendorServer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	railClient := railapi.NewClient(vendor.URL, logger)

	store, err := blobstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()

	refCache := refdata.New(store, railClient, nil, logger)
	refCache.Refresh(ctx, refdata.KindSchedules)
	refCache.Refresh(ctx, refdata.KindStops)
	refCache.Refresh(ctx, refdata.KindAdvisories)

	trackerManager := tracker.NewManager(tracker.Config{RefreshInterval: time.Hour}, railClient, nil, logger)
	trackerManager.RefreshNow(ctx)
	t.Cleanup(trackerManager.Shutdown)

	favoritesManager, err := favorites.NewManager(favorites.Config{RefreshInterval: time.Hour}, railClient, store, nil, logger)
	require.NoError(t, err)
	favoritesManager.Start()
	t.Cleanup(favoritesManager.Shutdown)

	application := &app.Application{
		Config: appconf.Config{
			Env:     appconf.Test,
			ApiKeys: []string{"TEST"},
		},
		Logger:     logger,
		Clock:      clock.RealClock{},
		RailClient: railClient,
		Store:      store,
		RefData:    refCache,
		Tracker:    trackerManager,
		Favorites:  favoritesManager,
	}

	return New(application)
}

// newTestServer stands up the full route table over a test application.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	api := createTestApi(t)
	mux := http.NewServeMux()
	api.SetRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRequestsRequireAPIKey(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name     string
		endpoint string
		want     int
	}{
		{"missing key", "/api/rail/trains", http.StatusUnauthorized},
		{"wrong key", "/api/rail/trains?key=WRONG", http.StatusUnauthorized},
		{"valid key", "/api/rail/trains?key=TEST", http.StatusOK},
		{"health is open", "/health", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.endpoint)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			require.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/rail/nope?key=TEST")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
