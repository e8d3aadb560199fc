// Package registry provides city registration and lookup. The search core
// only consumes domain.CityDirectory; the full Registry surface exists for
// the HTTP API.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Calebe94/usgs-earthquake/internal/domain"
)

// ErrDuplicateName means a city with that name is already registered.
var ErrDuplicateName = errors.New("city name already registered")

// Registry is the full city-registry surface.
type Registry interface {
	domain.CityDirectory
	CreateCity(ctx context.Context, city domain.City) (domain.City, error)
	ListCities(ctx context.Context) ([]domain.City, error)
}

// Memory is an in-memory Registry for development mode and tests.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.City
	byName map[string]int64
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[int64]domain.City),
		byName: make(map[string]int64),
	}
}

func (m *Memory) GetCity(_ context.Context, id int64) (domain.City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	city, ok := m.byID[id]
	if !ok {
		return domain.City{}, fmt.Errorf("%w: id %d", domain.ErrCityNotFound, id)
	}
	return city, nil
}

func (m *Memory) CreateCity(_ context.Context, city domain.City) (domain.City, error) {
	if err := city.Validate(); err != nil {
		return domain.City{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(city.Name))
	if _, exists := m.byName[key]; exists {
		return domain.City{}, fmt.Errorf("%w: %s", ErrDuplicateName, city.Name)
	}

	m.nextID++
	city.ID = m.nextID
	m.byID[city.ID] = city
	m.byName[key] = city.ID
	return city, nil
}

func (m *Memory) ListCities(_ context.Context) ([]domain.City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cities := make([]domain.City, 0, len(m.byID))
	for _, c := range m.byID {
		cities = append(cities, c)
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i].ID < cities[j].ID })
	return cities, nil
}
