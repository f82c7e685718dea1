package api

import (
	"net/http"

	"github.com/okian/peereval/internal/domain/completion"
	"github.com/okian/peereval/internal/domain/model"
)

type studentsResponse struct {
	OK       bool     `json:"ok"`
	Students []string `json:"students"`
}

type completionResponse struct {
	OK bool `json:"ok"`
	completion.Report
}

// TeacherHandler serves the teacher views.
type TeacherHandler struct {
	deps Dependencies
}

// NewTeacherHandler creates a new teacher handler.
func NewTeacherHandler(deps Dependencies) *TeacherHandler {
	return &TeacherHandler{deps: deps}
}

// HandleStudents handles GET /api/teacher/students requests.
func (h *TeacherHandler) HandleStudents(w http.ResponseWriter, r *http.Request, id model.Identity) {
	ids, err := h.deps.Students(r.Context(), id)
	if err != nil {
		writeKindError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, studentsResponse{OK: true, Students: ids})
}

// HandleCompletion handles GET /api/teacher/completion requests.
func (h *TeacherHandler) HandleCompletion(w http.ResponseWriter, r *http.Request, id model.Identity) {
	rep, err := h.deps.Completion(r.Context(), id)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completionResponse{OK: true, Report: rep})
}
