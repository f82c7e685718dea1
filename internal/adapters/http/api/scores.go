package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
)

// IdempotencyHeader carries the client's replay key on submissions.
const IdempotencyHeader = "Idempotency-Key"

// ScoreRequest is the body of the score submission endpoints. TargetUserID is
// ignored for self submissions.
type ScoreRequest struct {
	TargetUserID string       `json:"target_user_id"`
	Scores       model.Scores `json:"scores"`
}

// SubmitResponse acknowledges a submission.
type SubmitResponse struct {
	OK        bool       `json:"ok"`
	Duplicate bool       `json:"duplicate"`
	ID        uint       `json:"id,omitempty"`
	Kind      model.Kind `json:"kind,omitempty"`
	SubjectID string     `json:"subject_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type submitFunc func(ctx context.Context, id model.Identity, req ScoreRequest) (model.Record, error)

// ScoresHandler handles the three score submission endpoints.
type ScoresHandler struct {
	deps Dependencies

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps, inFlight: make(map[string]struct{})}
}

// claim records key for a new submission. A key that is already recorded is
// either still being processed (pending) or was accepted earlier (seen).
func (h *ScoresHandler) claim(ctx context.Context, key string) (seen, pending bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.inFlight[key]; ok {
		return true, true
	}
	if h.deps.SeenAndRecord(ctx, key) {
		return true, false
	}
	h.inFlight[key] = struct{}{}
	return false, false
}

// release ends the pending state of key. A failed submission forgets the key
// so the client can retry it.
func (h *ScoresHandler) release(ctx context.Context, key string, failed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inFlight, key)
	if failed {
		h.deps.Unrecord(ctx, key)
	}
}

// HandleSelf handles POST /api/scores/self requests.
func (h *ScoresHandler) HandleSelf(w http.ResponseWriter, r *http.Request, id model.Identity) {
	h.submit(w, r, id, model.KindSelf, func(ctx context.Context, id model.Identity, req ScoreRequest) (model.Record, error) {
		return h.deps.SubmitSelf(ctx, id, req.Scores)
	})
}

// HandlePeer handles POST /api/scores/peer requests.
func (h *ScoresHandler) HandlePeer(w http.ResponseWriter, r *http.Request, id model.Identity) {
	h.submit(w, r, id, model.KindPeer, func(ctx context.Context, id model.Identity, req ScoreRequest) (model.Record, error) {
		return h.deps.SubmitPeer(ctx, id, req.TargetUserID, req.Scores)
	})
}

// HandleTeacher handles POST /api/scores/teacher requests.
func (h *ScoresHandler) HandleTeacher(w http.ResponseWriter, r *http.Request, id model.Identity) {
	h.submit(w, r, id, model.KindTeacher, func(ctx context.Context, id model.Identity, req ScoreRequest) (model.Record, error) {
		return h.deps.SubmitTeacher(ctx, id, req.TargetUserID, req.Scores)
	})
}

func (h *ScoresHandler) submit(w http.ResponseWriter, r *http.Request, id model.Identity, kind model.Kind, fn submitFunc) {
	var req ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeKindError(w, errs.Wrap("api.submit", errs.ErrValidation, fmt.Errorf("%w: %w", ErrBadRequest, err)))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" {
		key = id.UserID + "|" + string(kind) + "|" + key
		seen, pending := h.claim(r.Context(), key)
		if pending {
			writeError(w, http.StatusConflict, CodeRequestInFlight, ErrRequestInFlight)
			return
		}
		if seen {
			writeJSON(w, http.StatusOK, SubmitResponse{OK: true, Duplicate: true})
			return
		}
	}

	rec, err := fn(r.Context(), id, req)
	if key != "" {
		h.release(r.Context(), key, err != nil)
	}
	if err != nil {
		writeKindError(w, err)
		return
	}
	created := rec.CreatedAt
	writeJSON(w, http.StatusOK, SubmitResponse{
		OK:        true,
		ID:        rec.ID,
		Kind:      rec.Kind,
		SubjectID: rec.SubjectID,
		CreatedAt: &created,
	})
}
