package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/mobilier/internal/auth"
	"github.com/erazemk/mobilier/internal/model"
	"github.com/erazemk/mobilier/internal/stats"
	"github.com/erazemk/mobilier/internal/store"
)

// AuthHandler handles session endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Login     *auth.Stub
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token string      `json:"token"`
	Agent model.Agent `json:"agent"`
}

type meResponse struct {
	Agent   model.Agent   `json:"agent"`
	Profile stats.Profile `json:"profile"`
}

// HandleLogin handles POST /api/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		jsonError(w, http.StatusBadRequest, "email required")
		return
	}

	agent, err := h.Login.Login(req.Email, req.Password, req.Role)
	switch {
	case errors.Is(err, auth.ErrForbiddenDomain):
		slog.Warn("login refused", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, auth.ErrWrongPassword):
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "wrong password")
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := store.UpsertAgent(r.Context(), h.DB, agent)
	if err != nil {
		slog.Error("recording login", "email", agent.Email, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, *stored)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("agent logged in", "agent", stored.Name, "role", stored.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, Agent: *stored})
}

// HandleLogout handles POST /api/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("revoking token", "agent", claims.Name, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	slog.Info("agent logged out", "agent", claims.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// HandleMe handles GET /api/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	agent, err := store.GetAgent(r.Context(), h.DB, claims.Email)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load agent")
		return
	}
	if agent == nil {
		a := claims.Agent()
		agent = &a
	}

	items, err := store.ListFurniture(r.Context(), h.DB, store.Filter{Agent: claims.Name})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	jsonResponse(w, http.StatusOK, meResponse{Agent: *agent, Profile: stats.NewProfile(claims.Name, items)})
}
