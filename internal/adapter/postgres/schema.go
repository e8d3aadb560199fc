package postgres

import "context"

// EnsureSchema creates the tables and constraints on first run. Statements
// use IF NOT EXISTS so restarts are idempotent.
//
// The EXCLUDE constraint on quake_cache_entries is load-bearing: it makes
// overlap-check-and-insert a single atomic unit in the database, so racing
// writers cannot produce overlapping ranges for a city no matter how many
// service processes run. btree_gist is required to mix the equality (city_id)
// and range (&&) operators in one constraint.
func (d *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`CREATE TABLE IF NOT EXISTS cities (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quake_cache_entries (
			id BIGSERIAL PRIMARY KEY,
			city_id BIGINT NOT NULL REFERENCES cities(id) ON DELETE CASCADE,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CHECK (start_date <= end_date),
			CONSTRAINT quake_cache_no_overlap EXCLUDE USING gist (
				city_id WITH =,
				daterange(start_date, end_date, '[]') WITH &&
			)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quake_cache_city_start
			ON quake_cache_entries (city_id, start_date)`,
	}

	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	d.logger.Debug("schema ensured")
	return nil
}
