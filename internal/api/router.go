package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/erazemk/mobilier/internal/auth"
	"github.com/erazemk/mobilier/internal/fieldwork"
	"github.com/erazemk/mobilier/internal/model"
)

// Config wires the router to its collaborators.
type Config struct {
	JWTSecret    string
	Login        *auth.Stub
	Board        *fieldwork.Board
	CORSOrigins  []string
	MaxBodyBytes int64
	Location     *time.Location // export timestamps
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, cfg Config) (http.Handler, error) {
	schema, err := compileFurnitureSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schemas: %w", err)
	}

	authHandler := &AuthHandler{DB: db, JWTSecret: cfg.JWTSecret, Login: cfg.Login}
	furnitureHandler := &FurnitureHandler{
		DB:           db,
		Board:        cfg.Board,
		Schema:       schema,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Location:     cfg.Location,
	}
	positionHandler := &PositionHandler{Board: cfg.Board}
	statsHandler := &StatsHandler{DB: db}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, LoggingMiddleware, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret, db))

			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/types", HandleTypes)

			r.Route("/mobilier", func(r chi.Router) {
				r.Get("/", furnitureHandler.List)
				r.Post("/", furnitureHandler.Upsert)
				r.Get("/nearby", furnitureHandler.Nearby)
				r.Get("/duplicates", furnitureHandler.Duplicates)
				r.Get("/export", furnitureHandler.Export)
				r.Get("/{id}", furnitureHandler.Get)
				r.Get("/{id}/photo", furnitureHandler.Photo)
			})

			r.Get("/stats", statsHandler.Dashboard)

			r.With(RequireRole(model.RoleField)).Post("/position", positionHandler.Report)
			r.Get("/position", positionHandler.Get)
		})
	})

	return r, nil
}
