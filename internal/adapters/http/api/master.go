package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/internal/domain/scoring"
)

type summaryResponse struct {
	OK bool `json:"ok"`
	scoring.Report
}

type matchResponse struct {
	OK bool `json:"ok"`
	matching.Result
}

// MasterHandler serves the master views.
type MasterHandler struct {
	deps Dependencies
}

// NewMasterHandler creates a new master handler.
func NewMasterHandler(deps Dependencies) *MasterHandler {
	return &MasterHandler{deps: deps}
}

// HandleSummary handles GET /api/master/summary requests.
func (h *MasterHandler) HandleSummary(w http.ResponseWriter, r *http.Request, id model.Identity) {
	rep, err := h.deps.Summary(r.Context(), id)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{OK: true, Report: rep})
}

// HandleMatch handles GET /api/master/match requests.
func (h *MasterHandler) HandleMatch(w http.ResponseWriter, r *http.Request, id model.Identity) {
	q, err := parseMatchQuery(r)
	if err != nil {
		writeKindError(w, err)
		return
	}
	res, err := h.deps.Match(r.Context(), id, q)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{OK: true, Result: res})
}

func parseMatchQuery(r *http.Request) (matching.Query, error) {
	v := r.URL.Query()
	q := matching.Query{
		StudentID: strings.TrimSpace(v.Get("student_id")),
		Method:    v.Get("method"),
	}
	if q.StudentID == "" {
		return q, errs.Newf("api.match", errs.ErrInvalidParameter, "student_id is required")
	}
	if raw := strings.TrimSpace(v.Get("top_k")); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			return q, errs.Wrap("api.match", errs.ErrInvalidParameter, fmt.Errorf("top_k: %w", err))
		}
		q.TopK = &k
	}
	return q, nil
}
