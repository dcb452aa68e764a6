package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: proximity queries read candidates by geohash prefix.
	`CREATE INDEX IF NOT EXISTS idx_furniture_geohash ON furniture(geohash)`,
	// Migration 2: the list is always served newest first.
	`CREATE INDEX IF NOT EXISTS idx_furniture_recorded_at ON furniture(recorded_at DESC)`,
	// Migration 3: per-agent statistics.
	`CREATE INDEX IF NOT EXISTS idx_furniture_agent ON furniture(agent)`,
}

// Migrate creates the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
