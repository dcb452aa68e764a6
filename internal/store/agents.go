package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/mobilier/internal/model"
)

// UpsertAgent records a login: the agent is created on first sight and its
// name, role and last login time are refreshed afterwards.
func UpsertAgent(ctx context.Context, db *sql.DB, a model.Agent) (*model.Agent, error) {
	_, err := db.ExecContext(ctx,
		`INSERT INTO agents (email, name, role, last_login_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET name = excluded.name, role = excluded.role,
		     last_login_at = excluded.last_login_at`,
		a.Email, a.Name, a.Role, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting agent: %w", err)
	}
	return GetAgent(ctx, db, a.Email)
}

// GetAgent returns an agent by email, or nil if it never logged in.
func GetAgent(ctx context.Context, db *sql.DB, email string) (*model.Agent, error) {
	a := &model.Agent{}
	err := db.QueryRowContext(ctx,
		`SELECT email, name, role, last_login_at FROM agents WHERE email = ?`, email,
	).Scan(&a.Email, &a.Name, &a.Role, &a.LastLoginAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting agent: %w", err)
	}
	return a, nil
}
