// Package cache implements the range cache: storage and reconciliation of
// closest-earthquake results keyed by (city, date range).
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Calebe94/usgs-earthquake/internal/domain"
	"github.com/Calebe94/usgs-earthquake/internal/observability"
)

// Entry is one stored (city, range, payload) record.
type Entry struct {
	CityID    int64
	Range     domain.DateRange
	Payload   domain.ResultPayload
	CreatedAt time.Time
}

// EntryStore is the persistence boundary of the range cache.
type EntryStore interface {
	// ListEntries returns every entry for the city, ascending by range
	// start. Callers must not modify the returned slice.
	ListEntries(ctx context.Context, cityID int64) ([]Entry, error)

	// Insert adds one entry. It fails with an error wrapping
	// domain.ErrDuplicateRange when the entry's range overlaps any stored
	// range for the same city; overlap check and insert are one atomic
	// unit per city.
	Insert(ctx context.Context, e Entry) error
}

// Span pairs a stored payload with the range it answers, so callers can
// interleave cached and freshly fetched results in range order.
type Span struct {
	Range   domain.DateRange
	Payload domain.ResultPayload
}

// RangeCache reconciles requested date ranges against stored entries.
type RangeCache struct {
	store   EntryStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a RangeCache over the given store.
func New(store EntryStore, logger *slog.Logger, metrics *observability.Metrics) *RangeCache {
	return &RangeCache{store: store, logger: logger, metrics: metrics}
}

// Reconcile splits the requested range into known spans (stored payloads, in
// range order) and gaps (uncovered sub-ranges, in range order). The union of
// gap coverage and known-span coverage equals the requested range exactly.
//
// Overlapping stored entries indicate a prior invariant violation; Reconcile
// reports domain.ErrCacheIntegrity rather than picking a winner, because
// either choice could return a wrong nearest-event answer.
func (c *RangeCache) Reconcile(ctx context.Context, cityID int64, requested domain.DateRange) ([]Span, []domain.DateRange, error) {
	entries, err := c.store.ListEntries(ctx, cityID)
	if err != nil {
		return nil, nil, fmt.Errorf("list cache entries: %w", err)
	}

	var (
		known []Span
		gaps  []domain.DateRange
	)
	cursor := requested.Start
	for i := range entries {
		e := entries[i]
		if i > 0 && entries[i-1].Range.Overlaps(e.Range) {
			c.logger.Error("overlapping cache entries",
				"city_id", cityID,
				"first", entries[i-1].Range.String(),
				"second", e.Range.String(),
			)
			return nil, nil, fmt.Errorf("%w: city %d entries %s and %s overlap",
				domain.ErrCacheIntegrity, cityID, entries[i-1].Range, e.Range)
		}
		if !e.Range.Overlaps(requested) {
			continue
		}
		if e.Range.Start.After(cursor) {
			gaps = append(gaps, domain.DateRange{Start: cursor, End: domain.PrevDay(e.Range.Start)})
		}
		known = append(known, Span{Range: e.Range, Payload: e.Payload})
		cursor = domain.NextDay(e.Range.End)
	}
	if !cursor.After(requested.End) {
		gaps = append(gaps, domain.DateRange{Start: cursor, End: requested.End})
	}

	c.metrics.ReconcileGaps.Observe(float64(len(gaps)))
	c.logger.Debug("range reconciled",
		"city_id", cityID,
		"requested", requested.String(),
		"known", len(known),
		"gaps", len(gaps),
	)
	return known, gaps, nil
}

// Store persists one payload for a range. A range overlapping any stored
// entry for the city is rejected with domain.ErrDuplicateRange; callers that
// lost a race to another writer should re-reconcile and use the cached value.
func (c *RangeCache) Store(ctx context.Context, cityID int64, r domain.DateRange, payload domain.ResultPayload) error {
	err := c.store.Insert(ctx, Entry{
		CityID:    cityID,
		Range:     r,
		Payload:   payload,
		CreatedAt: domain.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateRange) {
			c.metrics.StoreConflicts.Inc()
			return err
		}
		return fmt.Errorf("insert cache entry: %w", err)
	}
	c.metrics.EntriesStored.Inc()
	return nil
}
