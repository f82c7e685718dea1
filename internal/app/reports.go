package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/peereval/internal/domain/completion"
	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/internal/domain/scoring"
	"github.com/okian/peereval/pkg/metrics"
)

// records holds one consistent read of every table.
type records struct {
	self, peer, teacher []model.Record
}

func (s *Service) loadRecords(ctx context.Context) (records, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return records{}, err
	}
	return records{self: snap.Self, peer: snap.Peer, teacher: snap.Teacher}, nil
}

// Summary computes the weighted summary of every roster student.
func (s *Service) Summary(ctx context.Context, id model.Identity) (rep scoring.Report, err error) {
	const op = "service.summary"
	ctx, span := s.startSpan(ctx, op, id)
	defer func() { endSpan(span, err) }()
	start := time.Now()

	if err = s.ready(op); err != nil {
		return scoring.Report{}, err
	}
	if err = requireRole(op, id, model.RoleMaster); err != nil {
		return scoring.Report{}, err
	}
	recs, err := s.loadRecords(ctx)
	if err != nil {
		return scoring.Report{}, err
	}
	rep = s.aggregator.Aggregate(s.roster.Roster(), recs.self, recs.peer, recs.teacher)

	metrics.UpdateStudentsComplete(rep.CompleteCount)
	metrics.RecordReportLatency("summary", time.Since(start))
	span.SetAttributes(
		attribute.Int("class.size", rep.ClassSize),
		attribute.Int("class.complete", rep.CompleteCount),
	)
	return rep, nil
}

// Match ranks the catalog against a student's composite. Incomplete students
// yield complete=false and no candidates.
func (s *Service) Match(ctx context.Context, id model.Identity, q matching.Query) (res matching.Result, err error) {
	const op = "service.match"
	q.StudentID = strings.TrimSpace(q.StudentID)
	ctx, span := s.startSpan(ctx, op, id,
		attribute.String("student.id", q.StudentID),
		attribute.String("match.method", q.Method))
	defer func() { endSpan(span, err) }()
	start := time.Now()

	if err = s.ready(op); err != nil {
		return matching.Result{}, err
	}
	if err = requireRole(op, id, model.RoleMaster); err != nil {
		return matching.Result{}, err
	}
	if q.StudentID == "" {
		return matching.Result{}, errs.Newf(op, errs.ErrInvalidParameter, "student_id is required")
	}
	if _, err = matching.ParseMethod(q.Method, matching.DefaultMethod); err != nil {
		return matching.Result{}, err
	}

	var weighted *model.Vector
	if s.roster.InRoster(q.StudentID) {
		recs, err := s.loadRecords(ctx)
		if err != nil {
			return matching.Result{}, err
		}
		if w, ok := s.aggregator.Composite(q.StudentID, recs.self, recs.peer, recs.teacher); ok {
			weighted = &w
		}
	}

	res, err = s.matcher.Match(q, weighted)
	if err != nil {
		return matching.Result{}, err
	}
	if !res.Complete {
		metrics.RecordMatchIncomplete()
	}
	metrics.RecordReportLatency("match", time.Since(start))
	span.SetAttributes(attribute.Bool("match.complete", res.Complete), attribute.Int("match.top_k", res.TopK))
	return res, nil
}

// Completion reports submission progress for every roster student.
func (s *Service) Completion(ctx context.Context, id model.Identity) (rep completion.Report, err error) {
	const op = "service.completion"
	ctx, span := s.startSpan(ctx, op, id)
	defer func() { endSpan(span, err) }()
	start := time.Now()

	if err = s.ready(op); err != nil {
		return completion.Report{}, err
	}
	if err = requireRole(op, id, model.RoleTeacher); err != nil {
		return completion.Report{}, err
	}
	recs, err := s.loadRecords(ctx)
	if err != nil {
		return completion.Report{}, err
	}
	rep = s.reporter.Report(s.roster.Roster(), recs.self, recs.peer, recs.teacher)
	metrics.RecordReportLatency("completion", time.Since(start))
	return rep, nil
}

// Assignment lists the peers a student must rate and those already rated.
type Assignment struct {
	UserID  string   `json:"user_id"`
	Targets []string `json:"targets"`
	Done    []string `json:"done"`
	Pending []string `json:"pending"`
}

// AssignedPeers returns the calling student's peer assignment.
func (s *Service) AssignedPeers(ctx context.Context, id model.Identity) (a Assignment, err error) {
	const op = "service.assigned_peers"
	ctx, span := s.startSpan(ctx, op, id)
	defer func() { endSpan(span, err) }()

	if err = s.ready(op); err != nil {
		return Assignment{}, err
	}
	if err = requireRole(op, id, model.RoleStudent); err != nil {
		return Assignment{}, err
	}
	rated, err := s.store.PeerTargetsRatedBy(ctx, id.UserID)
	if err != nil {
		return Assignment{}, err
	}
	done := make(map[string]struct{}, len(rated))
	for _, t := range rated {
		done[t] = struct{}{}
	}

	a = Assignment{UserID: id.UserID, Targets: s.assignments.Targets(id.UserID), Done: []string{}, Pending: []string{}}
	for _, t := range a.Targets {
		if _, ok := done[t]; ok {
			a.Done = append(a.Done, t)
		} else {
			a.Pending = append(a.Pending, t)
		}
	}
	return a, nil
}

// Students returns the roster for a teacher.
func (s *Service) Students(ctx context.Context, id model.Identity) (ids []string, err error) {
	const op = "service.students"
	_, span := s.startSpan(ctx, op, id)
	defer func() { endSpan(span, err) }()

	if err = s.ready(op); err != nil {
		return nil, err
	}
	if err = requireRole(op, id, model.RoleTeacher); err != nil {
		return nil, err
	}
	return s.roster.Roster(), nil
}
