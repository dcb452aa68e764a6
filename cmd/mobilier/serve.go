package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/mobilier/internal/api"
	"github.com/erazemk/mobilier/internal/auth"
	"github.com/erazemk/mobilier/internal/fieldwork"
	"github.com/erazemk/mobilier/internal/store"
)

// purgeInterval is how often expired revoked tokens are dropped.
const purgeInterval = time.Hour

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return serve(cmd.Context(), e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	jwtSecret, err := resolveJWTSecret(ctx, e.db, e.cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	stub, err := auth.NewStub(e.cfg.Auth.Domain, e.cfg.Auth.Password)
	if err != nil {
		return err
	}

	board := fieldwork.NewBoard(store.Source{DB: e.db}, e.cfg.Board())
	router, err := api.NewRouter(e.db, api.Config{
		JWTSecret:    jwtSecret,
		Login:        stub,
		Board:        board,
		CORSOrigins:  e.cfg.HTTP.CORSOrigins,
		MaxBodyBytes: e.cfg.HTTP.MaxBodyBytes,
		Location:     time.Local,
	})
	if err != nil {
		return fmt.Errorf("setting up router: %w", err)
	}

	server := &http.Server{
		Addr:              e.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go purgeTokens(ctx, e.db)

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	cfg := board.Config()
	slog.Info("server started", "addr", e.cfg.Addr, "db", e.cfg.DB,
		"edit_radius", cfg.EditRadius, "duplicate_radius", cfg.DuplicateRadius, "domain", e.cfg.Auth.Domain)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// resolveJWTSecret returns the configured secret, stored so later runs
// without it keep accepting the sessions it signed, or the stored one.
func resolveJWTSecret(ctx context.Context, db *sql.DB, configured string) (string, error) {
	if configured != "" {
		if err := store.SetJWTSecret(ctx, db, configured); err != nil {
			return "", err
		}
		return configured, nil
	}

	secret, err := store.GetJWTSecret(ctx, db)
	if err != nil {
		return "", fmt.Errorf("loading JWT secret: %w", err)
	}
	return secret, nil
}

func purgeTokens(ctx context.Context, db *sql.DB) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeRevokedTokens(ctx, db, now)
			if err != nil {
				slog.Warn("purging revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("purged revoked tokens", "count", n)
			}
		}
	}
}
