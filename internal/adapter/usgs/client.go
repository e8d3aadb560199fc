// Package usgs implements domain.EventSource against the USGS FDSN event web
// service.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Calebe94/usgs-earthquake/internal/domain"
	"github.com/Calebe94/usgs-earthquake/internal/observability"
)

// Client fetches seismic events from the USGS catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a catalog client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// FetchEvents queries the catalog for events in the window at or above the
// minimum magnitude, ordered by time. All failures (transport, status,
// decode) come back as plain errors; the caller collapses them into its own
// taxonomy.
func (c *Client) FetchEvents(ctx context.Context, r domain.DateRange, minMagnitude float64) ([]domain.EventFeature, error) {
	params := url.Values{
		"starttime":    {r.Start.Format(domain.DateLayout)},
		"endtime":      {r.End.Format(domain.DateLayout)},
		"minmagnitude": {strconv.FormatFloat(minMagnitude, 'f', -1, 64)},
		"orderby":      {"time"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("catalog API error: status %d: %s", resp.StatusCode, body)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("success").Inc()

	events := make([]domain.EventFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		// Coordinates arrive [lon, lat, depth]; reorder to lat/lon.
		// Features without coordinates or magnitude (both occur in the
		// live feed) cannot answer a nearest-event query and are skipped.
		if len(f.Geometry.Coordinates) < 2 || f.Properties.Mag == nil {
			continue
		}
		events = append(events, domain.EventFeature{
			Coordinates: domain.Coordinates{
				Lat: f.Geometry.Coordinates[1],
				Lon: f.Geometry.Coordinates[0],
			},
			Magnitude: *f.Properties.Mag,
			Place:     f.Properties.Place,
			Time:      time.UnixMilli(f.Properties.Time).UTC(),
		})
	}

	c.logger.Debug("catalog window fetched",
		"range", r.String(),
		"min_magnitude", minMagnitude,
		"events", len(events),
	)
	return events, nil
}

// USGS GeoJSON response types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
	} `json:"geometry"`
	Properties struct {
		Mag   *float64 `json:"mag"`
		Place string   `json:"place"`
		Time  int64    `json:"time"` // epoch milliseconds
	} `json:"properties"`
}
