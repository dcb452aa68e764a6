package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/erazemk/mobilier/internal/export"
	"github.com/erazemk/mobilier/internal/fieldwork"
	"github.com/erazemk/mobilier/internal/geo"
	"github.com/erazemk/mobilier/internal/imaging"
	"github.com/erazemk/mobilier/internal/model"
	"github.com/erazemk/mobilier/internal/store"
)

// FurnitureHandler handles the census endpoints.
type FurnitureHandler struct {
	DB           *sql.DB
	Board        *fieldwork.Board
	Schema       *jsonschema.Schema
	MaxBodyBytes int64
	Location     *time.Location
}

type upsertRequest struct {
	model.Furniture
	// Standing is where the agent is, used by the edit gate.
	Standing *geo.Point `json:"position,omitempty"`
}

type createdResponse struct {
	Status     string            `json:"status"`
	Record     *model.Furniture  `json:"record"`
	Duplicates []model.Furniture `json:"duplicates"`
}

type updatedResponse struct {
	Status string           `json:"status"`
	Record *model.Furniture `json:"record"`
}

// List handles GET /api/mobilier.
func (h *FurnitureHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := store.ListFurniture(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("listing furniture", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/mobilier/{id}.
func (h *FurnitureHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := store.GetFurniture(r.Context(), h.DB, chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get record")
		return
	}
	if f == nil {
		jsonError(w, http.StatusNotFound, "record not found")
		return
	}
	jsonResponse(w, http.StatusOK, f)
}

// Photo handles GET /api/mobilier/{id}/photo.
func (h *FurnitureHandler) Photo(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetFurniturePhoto(r.Context(), h.DB, chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}

// Upsert handles POST /api/mobilier. A temporary id creates a record, any
// other id updates the stored one.
func (h *FurnitureHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if err := validateBody(h.Schema, body); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req upsertRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Photo != "" {
		req.Photo, err = imaging.NormalizeDataURI(req.Photo)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if model.IsTemporaryID(req.ID) {
		h.create(w, r, req)
		return
	}
	h.update(w, r, req, claims.Role)
}

func (h *FurnitureHandler) create(w http.ResponseWriter, r *http.Request, req upsertRequest) {
	claims := GetClaims(r.Context())
	if claims.Role != model.RoleField {
		jsonError(w, http.StatusForbidden, "only field agents record new furniture")
		return
	}

	f := req.Furniture
	f.Agent = claims.Name
	f.Distributor = ""
	f.TechnicalDescription = ""
	f.Reference = ""
	f.InstalledOn = ""
	f.ApplyDefaults()
	if err := f.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := store.CreateFurniture(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("creating furniture", "agent", claims.Name, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create record")
		return
	}

	dups, err := h.Board.Duplicates(r.Context(), *created)
	if err != nil {
		slog.Warn("looking up duplicates", "id", created.ID, "error", err)
		dups = []model.Furniture{}
	}

	slog.Info("furniture recorded", "id", created.ID, "type", created.Type, "agent", claims.Name, "duplicates", len(dups))
	jsonResponse(w, http.StatusCreated, createdResponse{Status: "created", Record: created, Duplicates: dups})
}

func (h *FurnitureHandler) update(w http.ResponseWriter, r *http.Request, req upsertRequest, role string) {
	claims := GetClaims(r.Context())

	existing, err := store.GetFurniture(r.Context(), h.DB, req.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get record")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "record not found")
		return
	}

	// The stored photo stays unless the submission carries a new one.
	existing.Photo = ""

	switch role {
	case model.RoleField:
		pos, _ := h.Board.Position(claims.Email)
		if req.Standing != nil {
			pos = *req.Standing
		}
		radius := h.Board.Config().EditRadius
		if !fieldwork.CanEdit(role, *existing, pos, radius) {
			slog.Warn("edit refused, too far", "id", existing.ID, "agent", claims.Name,
				"distance", geo.Distance(existing.Position(), pos))
			jsonError(w, http.StatusForbidden, "record is out of reach, move closer to edit it")
			return
		}
		existing.ApplyCorrection(req.Furniture)
	case model.RoleOffice:
		existing.ApplyValidation(req.Furniture)
	}
	existing.Agent = claims.Name

	if err := existing.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateFurniture(r.Context(), h.DB, *existing); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "record not found")
			return
		}
		slog.Error("updating furniture", "id", existing.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update record")
		return
	}

	updated, err := store.GetFurniture(r.Context(), h.DB, existing.ID)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "failed to reload record")
		return
	}

	slog.Info("furniture updated", "id", updated.ID, "agent", claims.Name, "role", role,
		"processed", model.IsFullyProcessed(*updated))
	jsonResponse(w, http.StatusOK, updatedResponse{Status: "updated", Record: updated})
}

// Nearby handles GET /api/mobilier/nearby?lat=&lng=[&radius=].
func (h *FurnitureHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	p, radius, err := parseProximity(r, h.Board.Config().EditRadius)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.Board.Nearby(r.Context(), p, radius)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to find nearby records")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Duplicates handles GET /api/mobilier/duplicates?lat=&lng=&type=[&radius=].
func (h *FurnitureHandler) Duplicates(w http.ResponseWriter, r *http.Request) {
	p, radius, err := parseProximity(r, h.Board.Config().DuplicateRadius)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	typeLabel := r.URL.Query().Get("type")
	if typeLabel == "" {
		jsonError(w, http.StatusBadRequest, "type required")
		return
	}

	nearby, err := h.Board.Nearby(r.Context(), p, radius)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to find duplicates")
		return
	}
	jsonResponse(w, http.StatusOK, geo.FindPotentialDuplicates(nearby, p, typeLabel, radius))
}

// Export handles GET /api/mobilier/export with the same filters as List.
func (h *FurnitureHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := store.ListFurniture(r.Context(), h.DB, filter)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(time.Now().In(loc))+`"`)
	if err := export.WriteCSV(w, items, loc); err != nil {
		slog.Error("writing export", "error", err)
	}
}
