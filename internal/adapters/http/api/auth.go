package api

import (
	"fmt"
	"net/http"

	"github.com/okian/peereval/internal/adapters/auth"
	service "github.com/okian/peereval/internal/app"
	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Role     string `json:"role"`
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	OK bool `json:"ok"`
	auth.Session
}

type meResponse struct {
	OK bool `json:"ok"`
	service.Profile
}

// AuthHandler handles login, profile and logout.
type AuthHandler struct {
	deps Dependencies
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(deps Dependencies) *AuthHandler {
	return &AuthHandler{deps: deps}
}

// HandleLogin handles POST /api/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeKindError(w, errs.Wrap("api.login", errs.ErrValidation, fmt.Errorf("%w: %w", ErrBadRequest, err)))
		return
	}
	sess, err := h.deps.Login(r.Context(), req.Role, req.UserID, req.Password)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{OK: true, Session: sess})
}

// HandleMe handles GET /api/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request, id model.Identity) {
	p, err := h.deps.Me(r.Context(), id)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{OK: true, Profile: p})
}

// HandleLogout handles POST /api/auth/logout requests.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request, _ model.Identity) {
	if err := h.deps.Logout(r.Context(), tokenFrom(r.Context())); err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
