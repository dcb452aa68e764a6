package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

const jwtSecretKey = "jwt_secret"

// GetSetting returns a setting's value, or "" if unset.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, nil
}

// PutSetting stores a setting, replacing any previous value.
func PutSetting(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// GetJWTSecret returns the session signing secret, generating and storing
// one on first use. Concurrent first calls agree on a single secret.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		jwtSecretKey, hex.EncodeToString(buf),
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	return GetSetting(ctx, db, jwtSecretKey)
}

// SetJWTSecret replaces the stored session signing secret. Tokens signed
// with the previous secret stop validating.
func SetJWTSecret(ctx context.Context, db *sql.DB, secret string) error {
	if secret == "" {
		return fmt.Errorf("storing jwt secret: empty secret")
	}
	return PutSetting(ctx, db, jwtSecretKey, secret)
}
