package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS furniture (
    id                    INTEGER PRIMARY KEY,
    type                  TEXT NOT NULL,
    category              TEXT NOT NULL CHECK (category IN ('comfort', 'hygiene', 'information', 'mobility', 'security', 'lighting', 'vegetation', 'smart-services')),
    state                 TEXT NOT NULL DEFAULT 'correct' CHECK (state IN ('new', 'correct', 'damaged', 'dangerous')),
    latitude              REAL NOT NULL CHECK (latitude BETWEEN -90 AND 90),
    longitude             REAL NOT NULL CHECK (longitude BETWEEN -180 AND 180),
    geohash               TEXT NOT NULL,
    manager               TEXT NOT NULL DEFAULT 'unknown' CHECK (manager IN ('regional-authority', 'municipality', 'unknown')),
    criticality           TEXT NOT NULL DEFAULT 'ok' CHECK (criticality IN ('ok', 'to-watch', 'urgent-safety')),
    comment               TEXT,
    photo                 BLOB,
    photo_mime            TEXT,
    recorded_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    agent                 TEXT NOT NULL,
    distributor           TEXT,
    technical_description TEXT,
    reference             TEXT,
    installed_on          TEXT
);

CREATE TABLE IF NOT EXISTS agents (
    email         TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    role          TEXT NOT NULL CHECK (role IN ('field', 'office')),
    last_login_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
