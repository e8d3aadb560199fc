// Package search drives one earthquake search end-to-end: reconcile the
// requested range against the cache, fetch and locate for each gap, store the
// new entries, and assemble the combined answer.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Calebe94/usgs-earthquake/internal/cache"
	"github.com/Calebe94/usgs-earthquake/internal/domain"
	"github.com/Calebe94/usgs-earthquake/internal/observability"
)

// maxAttempts bounds re-reconciliation after losing a store race to a
// concurrent run. More than one retry in a row means the same ranges keep
// being contended, which re-reconciliation resolves on the next pass anyway.
const maxAttempts = 3

// Orchestrator runs search requests. Safe for concurrent use.
type Orchestrator struct {
	cities       domain.CityDirectory
	cache        *cache.RangeCache
	source       domain.EventSource
	locator      domain.Locator
	minMagnitude float64
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// New creates an Orchestrator. A nil locator defaults to the great-circle
// implementation.
func New(cities domain.CityDirectory, rc *cache.RangeCache, source domain.EventSource, locator domain.Locator, minMagnitude float64, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	if locator == nil {
		locator = domain.GreatCircleLocator{}
	}
	return &Orchestrator{
		cities:       cities,
		cache:        rc,
		source:       source,
		locator:      locator,
		minMagnitude: minMagnitude,
		logger:       logger,
		metrics:      metrics,
	}
}

// Run executes one search and returns the combined payloads in ascending
// range order. Errors map onto the domain taxonomy: ErrCityNotFound,
// ErrInvalidRange, ErrUpstreamUnavailable, ErrCacheIntegrity.
func (o *Orchestrator) Run(ctx context.Context, cityID int64, startDate, endDate string) ([]domain.ResultPayload, error) {
	o.metrics.SearchesStarted.Inc()

	results, err := o.run(ctx, cityID, startDate, endDate)
	if err != nil {
		o.metrics.SearchesFailed.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	o.metrics.SearchesCompleted.Inc()
	return results, nil
}

func (o *Orchestrator) run(ctx context.Context, cityID int64, startDate, endDate string) ([]domain.ResultPayload, error) {
	city, err := o.cities.GetCity(ctx, cityID)
	if err != nil {
		return nil, err
	}
	requested, err := domain.ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		results, raced, err := o.searchOnce(ctx, city, requested)
		if err != nil {
			return nil, err
		}
		if !raced {
			return results, nil
		}
		o.logger.Info("lost cache store race, re-reconciling",
			"city", city.Name,
			"requested", requested.String(),
			"attempt", attempt,
		)
	}
	return nil, fmt.Errorf("repeated store races for %s: %w", requested, domain.ErrDuplicateRange)
}

// searchOnce performs one reconcile-fetch-store pass. raced is true when a
// concurrent run stored one of our gaps first; the caller re-reconciles and
// uses the now-cached value instead of treating the conflict as fatal.
func (o *Orchestrator) searchOnce(ctx context.Context, city domain.City, requested domain.DateRange) (results []domain.ResultPayload, raced bool, err error) {
	known, gaps, err := o.cache.Reconcile(ctx, city.ID, requested)
	if err != nil {
		return nil, false, err
	}

	// Fetch every gap before storing anything. A run either fully succeeds
	// or fully fails, so an upstream failure on a later gap never leaves a
	// sibling gap's result behind in the cache.
	fetched := make([]cache.Span, 0, len(gaps))
	for _, gap := range gaps {
		events, fetchErr := o.source.FetchEvents(ctx, gap, o.minMagnitude)
		if fetchErr != nil {
			o.logger.Warn("catalog fetch failed",
				"city", city.Name,
				"range", gap.String(),
				"error", fetchErr,
			)
			return nil, false, fmt.Errorf("%w: fetch %s: %v", domain.ErrUpstreamUnavailable, gap, fetchErr)
		}

		payload := domain.NoEventResult()
		if nearest, km, ok := o.locator.Nearest(city.Coordinates(), events); ok {
			payload = domain.ClosestResult(city.Name, nearest, km)
		}
		fetched = append(fetched, cache.Span{Range: gap, Payload: payload})
	}

	for _, span := range fetched {
		if storeErr := o.cache.Store(ctx, city.ID, span.Range, span.Payload); storeErr != nil {
			if errors.Is(storeErr, domain.ErrDuplicateRange) {
				return nil, true, nil
			}
			return nil, false, storeErr
		}
	}

	spans := make([]cache.Span, 0, len(known)+len(fetched))
	spans = append(spans, known...)
	spans = append(spans, fetched...)
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].Range.Start.Before(spans[j].Range.Start)
	})

	results = make([]domain.ResultPayload, len(spans))
	for i, s := range spans {
		results[i] = s.Payload
	}
	return results, false, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCityNotFound):
		return "city_not_found"
	case errors.Is(err, domain.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream"
	case errors.Is(err, domain.ErrCacheIntegrity):
		return "integrity"
	default:
		return "internal"
	}
}
