package api

import (
	"errors"
	"net/http"

	"github.com/erazemk/mobilier/internal/fieldwork"
	"github.com/erazemk/mobilier/internal/geo"
	"github.com/erazemk/mobilier/internal/model"
)

// PositionHandler receives live positions from field agents.
type PositionHandler struct {
	Board *fieldwork.Board
}

// Report handles POST /api/position and returns the records now in reach.
func (h *PositionHandler) Report(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var p geo.Point
	if !decodeJSON(w, r, &p) {
		return
	}

	if _, err := h.Board.Apply(r.Context(), claims.Email, p); err != nil {
		if errors.Is(err, model.ErrInvalidCoordinates) {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to apply position")
		return
	}
	jsonResponse(w, http.StatusOK, h.Board.Fix(claims.Email))
}

// Get handles GET /api/position.
func (h *PositionHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	jsonResponse(w, http.StatusOK, h.Board.Fix(claims.Email))
}
