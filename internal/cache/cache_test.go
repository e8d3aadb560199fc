package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Calebe94/usgs-earthquake/internal/domain"
	"github.com/Calebe94/usgs-earthquake/internal/observability"
)

const cityID = int64(7)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCache(store EntryStore) *RangeCache {
	return New(store, testLogger(), observability.NewMetricsForTesting())
}

func dr(t *testing.T, start, end string) domain.DateRange {
	t.Helper()
	r, err := domain.ParseDateRange(start, end)
	require.NoError(t, err)
	return r
}

func marker() domain.ResultPayload { return domain.NoEventResult() }

func found(place string) domain.ResultPayload {
	return domain.ClosestResult("City", domain.EventFeature{
		Magnitude: 5.5,
		Place:     place,
		Time:      time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	}, 100)
}

func TestReconcile_EmptyStore(t *testing.T) {
	c := testCache(NewMemoryStore())
	requested := dr(t, "2020-01-01", "2020-01-31")

	known, gaps, err := c.Reconcile(context.Background(), cityID, requested)
	require.NoError(t, err)
	assert.Empty(t, known)
	require.Len(t, gaps, 1)
	assert.Equal(t, requested, gaps[0])
}

func TestStoreThenReconcile_ExactRange(t *testing.T) {
	c := testCache(NewMemoryStore())
	r := dr(t, "2020-01-01", "2020-01-31")
	payload := found("somewhere")

	require.NoError(t, c.Store(context.Background(), cityID, r, payload))

	known, gaps, err := c.Reconcile(context.Background(), cityID, r)
	require.NoError(t, err)
	assert.Empty(t, gaps)
	require.Len(t, known, 1)
	assert.Equal(t, r, known[0].Range)
	assert.Equal(t, payload, known[0].Payload)
}

func TestReconcile_GapBetweenEntries(t *testing.T) {
	c := testCache(NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-01", "2020-01-10"), found("a")))
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-20", "2020-01-31"), found("b")))

	known, gaps, err := c.Reconcile(ctx, cityID, dr(t, "2020-01-01", "2020-01-31"))
	require.NoError(t, err)

	require.Len(t, gaps, 1)
	assert.Equal(t, dr(t, "2020-01-11", "2020-01-19"), gaps[0])

	require.Len(t, known, 2)
	assert.Equal(t, "a", known[0].Payload.Place)
	assert.Equal(t, "b", known[1].Payload.Place)
}

func TestReconcile_LeadingAndTrailingGaps(t *testing.T) {
	c := testCache(NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-10", "2020-01-15"), marker()))

	known, gaps, err := c.Reconcile(ctx, cityID, dr(t, "2020-01-01", "2020-01-31"))
	require.NoError(t, err)

	require.Len(t, known, 1)
	require.Len(t, gaps, 2)
	assert.Equal(t, dr(t, "2020-01-01", "2020-01-09"), gaps[0])
	assert.Equal(t, dr(t, "2020-01-16", "2020-01-31"), gaps[1])
}

func TestReconcile_EntryOverhangsRequest(t *testing.T) {
	c := testCache(NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2019-12-25", "2020-01-05"), found("old")))

	known, gaps, err := c.Reconcile(ctx, cityID, dr(t, "2020-01-01", "2020-01-10"))
	require.NoError(t, err)

	require.Len(t, known, 1)
	assert.Equal(t, "old", known[0].Payload.Place)
	require.Len(t, gaps, 1)
	assert.Equal(t, dr(t, "2020-01-06", "2020-01-10"), gaps[0])
}

func TestReconcile_AdjacentEntriesFullyCover(t *testing.T) {
	c := testCache(NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-01", "2020-01-10"), found("a")))
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-11", "2020-01-31"), found("b")))

	known, gaps, err := c.Reconcile(ctx, cityID, dr(t, "2020-01-01", "2020-01-31"))
	require.NoError(t, err)
	assert.Empty(t, gaps)
	assert.Len(t, known, 2)
}

func TestReconcile_OtherCityEntriesIgnored(t *testing.T) {
	c := testCache(NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, c.Store(ctx, cityID+1, dr(t, "2020-01-01", "2020-01-31"), found("other")))

	known, gaps, err := c.Reconcile(ctx, cityID, dr(t, "2020-01-01", "2020-01-31"))
	require.NoError(t, err)
	assert.Empty(t, known)
	assert.Len(t, gaps, 1)
}

// Gap coverage plus known coverage must equal the requested range exactly,
// with no overlap between the two.
func TestReconcile_CoverageIsExact(t *testing.T) {
	c := testCache(NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-03", "2020-01-04"), marker()))
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-08", "2020-01-12"), marker()))
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-20", "2020-02-10"), marker()))

	requested := dr(t, "2020-01-01", "2020-01-31")
	known, gaps, err := c.Reconcile(ctx, cityID, requested)
	require.NoError(t, err)

	covered := make(map[string]int)
	mark := func(r domain.DateRange) {
		for d := r.Start; !d.After(r.End); d = domain.NextDay(d) {
			if d.Before(requested.Start) || d.After(requested.End) {
				continue
			}
			covered[d.Format(domain.DateLayout)]++
		}
	}
	for _, s := range known {
		mark(s.Range)
	}
	for _, g := range gaps {
		mark(g)
	}

	assert.Len(t, covered, requested.Days())
	for day, n := range covered {
		assert.Equal(t, 1, n, "day %s covered %d times", day, n)
	}
}

func TestStore_OverlapRejected(t *testing.T) {
	c := testCache(NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-01", "2020-01-10"), found("a")))

	err := c.Store(ctx, cityID, dr(t, "2020-01-05", "2020-01-15"), found("b"))
	require.ErrorIs(t, err, domain.ErrDuplicateRange)

	err = c.Store(ctx, cityID, dr(t, "2020-01-10", "2020-01-10"), marker())
	require.ErrorIs(t, err, domain.ErrDuplicateRange)
}

func TestStore_AdjacentRangeAccepted(t *testing.T) {
	c := testCache(NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-01", "2020-01-10"), found("a")))
	require.NoError(t, c.Store(ctx, cityID, dr(t, "2020-01-11", "2020-01-20"), found("b")))
}

func TestStore_SameRangeDifferentCityAccepted(t *testing.T) {
	c := testCache(NewMemoryStore())
	ctx := context.Background()
	r := dr(t, "2020-01-01", "2020-01-10")
	require.NoError(t, c.Store(ctx, cityID, r, found("a")))
	require.NoError(t, c.Store(ctx, cityID+1, r, found("a")))
}

// fixedStore returns whatever entries it was given, bypassing insert-time
// overlap enforcement, to simulate a corrupted backing store.
type fixedStore struct {
	entries []Entry
}

func (s *fixedStore) ListEntries(context.Context, int64) ([]Entry, error) {
	return s.entries, nil
}

func (s *fixedStore) Insert(context.Context, Entry) error { return nil }

func TestReconcile_OverlappingEntriesAreIntegrityFault(t *testing.T) {
	store := &fixedStore{entries: []Entry{
		{CityID: cityID, Range: dr(t, "2020-01-01", "2020-01-10"), Payload: marker()},
		{CityID: cityID, Range: dr(t, "2020-01-08", "2020-01-20"), Payload: marker()},
	}}
	c := testCache(store)

	_, _, err := c.Reconcile(context.Background(), cityID, dr(t, "2020-01-01", "2020-01-31"))
	require.ErrorIs(t, err, domain.ErrCacheIntegrity)
}
