package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/hrygo/weathersense/internal/profile"
	"github.com/hrygo/weathersense/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database specified by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	postgresDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: postgresDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// placeholder returns the n-th positional parameter for PostgreSQL.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS user_profile (
		user_id TEXT PRIMARY KEY,
		persona_id TEXT NOT NULL,
		preferred_city TEXT NOT NULL DEFAULT '',
		units TEXT NOT NULL,
		response_style TEXT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_turn (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		message TEXT NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_turn_user_time
		ON conversation_turn (user_id, created_ts DESC)`,
	`CREATE TABLE IF NOT EXISTS memory_fact (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		memory_type TEXT NOT NULL,
		value TEXT NOT NULL,
		normalized_value TEXT NOT NULL,
		importance DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		source_turn TEXT NOT NULL DEFAULT '',
		source_message TEXT NOT NULL DEFAULT '',
		created_ts BIGINT NOT NULL,
		last_used_ts BIGINT NOT NULL,
		UNIQUE (user_id, memory_type, normalized_value)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memory_fact_user_type
		ON memory_fact (user_id, memory_type, last_used_ts DESC)`,
}

func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply migration")
		}
	}
	return nil
}
