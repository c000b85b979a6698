// Package railapi is the HTTP client for the vendor's regional-rail feeds:
// live train positions, next-to-arrive predictions, and the slow-moving
// reference datasets (schedules, stops, advisories).
package railapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"railwatch.transitlabs.org/internal/logging"
	"railwatch.transitlabs.org/internal/models"
)

// Vendor endpoint paths, relative to the configured base URL.
const (
	trainViewPath    = "/TrainView/index.php"
	nextToArrivePath = "/NextToArrive/index.php"
	schedulesPath    = "/RRSchedules/index.php"
	stopsPath        = "/RRStops/index.php"
	advisoriesPath   = "/Advisories/index.php"
)

// feedHTTPClient is a dedicated HTTP client for vendor feed fetching,
// configured with explicit timeouts and transport limits to avoid the
// pitfalls of http.DefaultClient (no timeout, shared global state). The
// transport is cloned from http.DefaultTransport to preserve important
// defaults (ProxyFromEnvironment, DialContext, HTTP/2, keepalives).
var feedHTTPClient = newFeedHTTPClient()

func newFeedHTTPClient() *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConns = 50
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second
	transport.ExpectContinueTimeout = 1 * time.Second

	return &http.Client{
		// Absolute safety net per request; callers also bound fetches with
		// context timeouts and the stricter of the two wins.
		Timeout:   10 * time.Second,
		Transport: transport,
	}
}

// Client talks to the vendor API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the given vendor base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: feedHTTPClient,
		logger:     logger.With(slog.String("component", "railapi_client")),
	}
}

// Trains fetches the live train-position feed.
func (c *Client) Trains(ctx context.Context) ([]models.Train, error) {
	var trains []models.Train
	if err := c.get(ctx, trainViewPath, nil, &trains); err != nil {
		return nil, err
	}
	return trains, nil
}

// NextTrains fetches up to n next-to-arrive predictions for the station pair.
// Queries with identical endpoints or the "---" placeholder are meaningless
// (clients issue them at startup before stations are chosen) and short-circuit
// to an empty result without touching the network.
func (c *Client) NextTrains(ctx context.Context, start, end string, n int) ([]models.NextTrain, error) {
	if start == end || start == models.PlaceholderStation || end == models.PlaceholderStation {
		return []models.NextTrain{}, nil
	}

	params := url.Values{}
	params.Set("req1", start)
	params.Set("req2", end)
	params.Set("req3", strconv.Itoa(n))

	var arrivals []models.NextTrain
	if err := c.get(ctx, nextToArrivePath, params, &arrivals); err != nil {
		return nil, err
	}
	return arrivals, nil
}

// Schedules fetches the static schedule dataset.
func (c *Client) Schedules(ctx context.Context) (models.ScheduleData, error) {
	var schedules models.ScheduleData
	if err := c.get(ctx, schedulesPath, nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// Stops fetches the reference stop list.
func (c *Client) Stops(ctx context.Context) ([]string, error) {
	var stops []string
	if err := c.get(ctx, stopsPath, nil, &stops); err != nil {
		return nil, err
	}
	return stops, nil
}

// Advisories fetches the current service advisories.
func (c *Client) Advisories(ctx context.Context) (*models.AdvisoryFeed, error) {
	var feed models.AdvisoryFeed
	if err := c.get(ctx, advisoriesPath, nil, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

// get issues a GET to path with the given query parameters and decodes the
// JSON body into out. Error taxonomy: ErrInvalidURL for unbuildable requests,
// ErrNoData for empty bodies, DecodeError for schema mismatches.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%w: %s%s: %v", ErrInvalidURL, c.baseURL, path, err)
	}
	if params != nil {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidURL, endpoint.String(), err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: upstream returned %s", path, resp.Status)
	}

	const maxBodySize = 25 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("reading %s response body: %w", path, err)
	}
	if int64(len(body)) > maxBodySize {
		return fmt.Errorf("%s response exceeds size limit of %d bytes", path, maxBodySize)
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, path)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Endpoint: path, Err: err}
	}
	return nil
}
