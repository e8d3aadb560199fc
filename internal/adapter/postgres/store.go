// Package postgres provides the persistent cache entry store and city
// registry backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Calebe94/usgs-earthquake/internal/cache"
	"github.com/Calebe94/usgs-earthquake/internal/domain"
	"github.com/Calebe94/usgs-earthquake/internal/registry"
)

// pq error codes that signal the no-overlap or uniqueness constraints fired.
const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

// DB wraps the connection pool shared by the entry store and city registry.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to Postgres and configures the pool.
func Open(dsn string, logger *slog.Logger) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	return &DB{db: db, logger: logger}, nil
}

// Ping verifies the connection; used by the readiness probe.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Entries returns the cache.EntryStore view of this database.
func (d *DB) Entries() *EntryStore {
	return &EntryStore{db: d.db}
}

// Cities returns the registry.Registry view of this database.
func (d *DB) Cities() *CityStore {
	return &CityStore{db: d.db}
}

// EntryStore implements cache.EntryStore on the quake_cache_entries table.
type EntryStore struct {
	db *sql.DB
}

func (s *EntryStore) ListEntries(ctx context.Context, cityID int64) ([]cache.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_date, end_date, payload, created_at
		   FROM quake_cache_entries
		  WHERE city_id = $1
		  ORDER BY start_date`, cityID)
	if err != nil {
		return nil, fmt.Errorf("query cache entries: %w", err)
	}
	defer rows.Close()

	var entries []cache.Entry
	for rows.Next() {
		var (
			e       cache.Entry
			start   sql.NullTime
			end     sql.NullTime
			payload []byte
		)
		if err := rows.Scan(&start, &end, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		r, err := domain.NewDateRange(start.Time, end.Time)
		if err != nil {
			return nil, fmt.Errorf("stored range for city %d: %w", cityID, err)
		}
		e.CityID = cityID
		e.Range = r
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("stored payload for city %d %s: %w", cityID, r, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *EntryStore) Insert(ctx context.Context, e cache.Entry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quake_cache_entries (city_id, start_date, end_date, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.CityID, e.Range.Start, e.Range.End, payload, e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) &&
			(pqErr.Code == pqExclusionViolation || pqErr.Code == pqUniqueViolation) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRange, e.Range)
		}
		return fmt.Errorf("insert cache entry: %w", err)
	}
	return nil
}

// CityStore implements registry.Registry on the cities table.
type CityStore struct {
	db *sql.DB
}

func (s *CityStore) GetCity(ctx context.Context, id int64) (domain.City, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, latitude, longitude FROM cities WHERE id = $1`, id)

	var c domain.City
	if err := row.Scan(&c.ID, &c.Name, &c.Latitude, &c.Longitude); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.City{}, fmt.Errorf("%w: id %d", domain.ErrCityNotFound, id)
		}
		return domain.City{}, fmt.Errorf("query city %d: %w", id, err)
	}
	return c, nil
}

func (s *CityStore) CreateCity(ctx context.Context, city domain.City) (domain.City, error) {
	if err := city.Validate(); err != nil {
		return domain.City{}, err
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO cities (name, latitude, longitude)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		city.Name, city.Latitude, city.Longitude)

	if err := row.Scan(&city.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return domain.City{}, fmt.Errorf("%w: %s", registry.ErrDuplicateName, city.Name)
		}
		return domain.City{}, fmt.Errorf("insert city: %w", err)
	}
	return city, nil
}

func (s *CityStore) ListCities(ctx context.Context) ([]domain.City, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude FROM cities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var cities []domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Latitude, &c.Longitude); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}
