package api

import (
	"net/http"

	service "github.com/okian/peereval/internal/app"
	"github.com/okian/peereval/internal/domain/model"
)

type assignmentResponse struct {
	OK bool `json:"ok"`
	service.Assignment
}

// AssignmentHandler serves a student's peer assignments.
type AssignmentHandler struct {
	deps Dependencies
}

// NewAssignmentHandler creates a new assignment handler.
func NewAssignmentHandler(deps Dependencies) *AssignmentHandler {
	return &AssignmentHandler{deps: deps}
}

// HandlePeers handles GET /api/assignments/peers requests.
func (h *AssignmentHandler) HandlePeers(w http.ResponseWriter, r *http.Request, id model.Identity) {
	a, err := h.deps.AssignedPeers(r.Context(), id)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignmentResponse{OK: true, Assignment: a})
}
