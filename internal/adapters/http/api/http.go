// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/peereval/internal/adapters/auth"
	service "github.com/okian/peereval/internal/app"
	"github.com/okian/peereval/internal/domain/completion"
	"github.com/okian/peereval/internal/domain/dedupe"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/internal/domain/scoring"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	Login(ctx context.Context, role, userID, password string) (auth.Session, error)
	Authenticate(ctx context.Context, token string) (model.Identity, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, id model.Identity) (service.Profile, error)

	SubmitSelf(ctx context.Context, id model.Identity, scores model.Scores) (model.Record, error)
	SubmitPeer(ctx context.Context, id model.Identity, target string, scores model.Scores) (model.Record, error)
	SubmitTeacher(ctx context.Context, id model.Identity, target string, scores model.Scores) (model.Record, error)

	AssignedPeers(ctx context.Context, id model.Identity) (service.Assignment, error)
	Students(ctx context.Context, id model.Identity) ([]string, error)
	Completion(ctx context.Context, id model.Identity) (completion.Report, error)
	Summary(ctx context.Context, id model.Identity) (scoring.Report, error)
	Match(ctx context.Context, id model.Identity, q matching.Query) (matching.Result, error)
}

// Server wires HTTP routes for the evaluation API.
type Server struct {
	deps              Dependencies
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	authHandler       *AuthHandler
	scoresHandler     *ScoresHandler
	assignmentHandler *AssignmentHandler
	teacherHandler    *TeacherHandler
	masterHandler     *MasterHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		deps:              deps,
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		authHandler:       NewAuthHandler(deps),
		scoresHandler:     NewScoresHandler(deps),
		assignmentHandler: NewAssignmentHandler(deps),
		teacherHandler:    NewTeacherHandler(deps),
		masterHandler:     NewMasterHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	authn := func(h authedHandler) http.HandlerFunc { return RequireIdentity(s.deps, h) }

	mux.HandleFunc("GET /health", MetricsMiddleware(s.healthHandler.HandleLiveness, "health"))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /api/auth/login", MetricsMiddleware(s.authHandler.HandleLogin, "auth_login"))
	mux.HandleFunc("GET /api/auth/me", MetricsMiddleware(authn(s.authHandler.HandleMe), "auth_me"))
	mux.HandleFunc("POST /api/auth/logout", MetricsMiddleware(authn(s.authHandler.HandleLogout), "auth_logout"))

	mux.HandleFunc("POST /api/scores/self", MetricsMiddleware(authn(s.scoresHandler.HandleSelf), "scores_self"))
	mux.HandleFunc("POST /api/scores/peer", MetricsMiddleware(authn(s.scoresHandler.HandlePeer), "scores_peer"))
	mux.HandleFunc("POST /api/scores/teacher", MetricsMiddleware(authn(s.scoresHandler.HandleTeacher), "scores_teacher"))

	mux.HandleFunc("GET /api/assignments/peers", MetricsMiddleware(authn(s.assignmentHandler.HandlePeers), "assignments_peers"))
	mux.HandleFunc("GET /api/teacher/students", MetricsMiddleware(authn(s.teacherHandler.HandleStudents), "teacher_students"))
	mux.HandleFunc("GET /api/teacher/completion", MetricsMiddleware(authn(s.teacherHandler.HandleCompletion), "teacher_completion"))
	mux.HandleFunc("GET /api/master/summary", MetricsMiddleware(authn(s.masterHandler.HandleSummary), "master_summary"))
	mux.HandleFunc("GET /api/master/match", MetricsMiddleware(authn(s.masterHandler.HandleMatch), "master_match"))
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{OK: false, Code: code, Message: msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
