package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/mobilier/internal/stats"
	"github.com/erazemk/mobilier/internal/store"
)

// StatsHandler serves the office dashboard.
type StatsHandler struct {
	DB *sql.DB
}

// Dashboard handles GET /api/stats.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListFurniture(r.Context(), h.DB, store.Filter{})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	jsonResponse(w, http.StatusOK, stats.NewDashboard(items))
}
