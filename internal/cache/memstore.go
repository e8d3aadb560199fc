package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Calebe94/usgs-earthquake/internal/domain"
)

// MemoryStore is an in-memory EntryStore used in development mode and tests.
// A single mutex guards all cities, which satisfies the per-city atomicity
// the insert contract requires.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64][]Entry // per city, ascending by range start
}

// NewMemoryStore creates an empty in-memory entry store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[int64][]Entry)}
}

func (s *MemoryStore) ListEntries(_ context.Context, cityID int64) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.entries[cityID]
	out := make([]Entry, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.entries[e.CityID] {
		if existing.Range.Overlaps(e.Range) {
			return fmt.Errorf("%w: %s intersects stored %s",
				domain.ErrDuplicateRange, e.Range, existing.Range)
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = domain.Now()
	}
	s.entries[e.CityID] = append(s.entries[e.CityID], e)
	sort.Slice(s.entries[e.CityID], func(i, j int) bool {
		return s.entries[e.CityID][i].Range.Start.Before(s.entries[e.CityID][j].Range.Start)
	})
	return nil
}
