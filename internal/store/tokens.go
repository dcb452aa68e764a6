package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeToken puts a session token's JTI on the revocation list until it
// would have expired anyway.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	if _, err := PurgeRevokedTokens(ctx, db, time.Now()); err != nil {
		return err
	}
	return nil
}

// IsTokenRevoked reports whether a JTI is on the revocation list.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}

// PurgeRevokedTokens drops revocations whose tokens expired before now.
func PurgeRevokedTokens(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	return result.RowsAffected()
}
