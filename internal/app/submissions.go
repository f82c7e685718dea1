package service

import (
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/pkg/logger"
	"github.com/okian/peereval/pkg/metrics"
)

// SubmitSelf stores a self rating for the calling student.
func (s *Service) SubmitSelf(ctx context.Context, id model.Identity, scores model.Scores) (rec model.Record, err error) {
	const op = "service.submit_self"
	ctx, span := s.startSpan(ctx, op, id)
	defer func() { endSpan(span, err); s.observe(ctx, model.KindSelf, id, "", err) }()

	if err = s.ready(op); err != nil {
		return model.Record{}, err
	}
	if err = requireRole(op, id, model.RoleStudent); err != nil {
		return model.Record{}, err
	}
	if err = scores.Validate(); err != nil {
		return model.Record{}, err
	}
	if !s.roster.InRoster(id.UserID) {
		return model.Record{}, errs.Newf(op, errs.ErrForbidden, "%s is not in the roster", id.UserID)
	}
	return s.store.SubmitSelf(ctx, id.UserID, scores)
}

// SubmitPeer stores or replaces the calling student's rating of target.
// Checks run in order: role, self-rating, roster membership of rater and
// target, assignment, then scores. Rating oneself is refused whatever the
// assignment list says.
func (s *Service) SubmitPeer(ctx context.Context, id model.Identity, target string, scores model.Scores) (rec model.Record, err error) {
	const op = "service.submit_peer"
	target = strings.TrimSpace(target)
	ctx, span := s.startSpan(ctx, op, id, attribute.String("target.id", target))
	defer func() { endSpan(span, err); s.observe(ctx, model.KindPeer, id, target, err) }()

	if err = s.ready(op); err != nil {
		return model.Record{}, err
	}
	if err = requireRole(op, id, model.RoleStudent); err != nil {
		return model.Record{}, err
	}
	if target == "" {
		return model.Record{}, errs.Newf(op, errs.ErrValidation, "target_user_id is required")
	}
	if target == id.UserID {
		return model.Record{}, errs.New(op, errs.ErrCannotRateSelf)
	}
	if !s.roster.InRoster(id.UserID) {
		return model.Record{}, errs.Newf(op, errs.ErrForbidden, "%s is not in the roster", id.UserID)
	}
	if !s.roster.InRoster(target) {
		return model.Record{}, errs.Newf(op, errs.ErrTargetNotInRoster, "%s", target)
	}
	if !slices.Contains(s.assignments.Targets(id.UserID), target) {
		return model.Record{}, errs.Newf(op, errs.ErrTargetNotAssigned, "%s", target)
	}
	if err = scores.Validate(); err != nil {
		return model.Record{}, err
	}
	return s.store.SubmitPeer(ctx, id.UserID, target, scores)
}

// SubmitTeacher stores or replaces the calling teacher's rating of target.
func (s *Service) SubmitTeacher(ctx context.Context, id model.Identity, target string, scores model.Scores) (rec model.Record, err error) {
	const op = "service.submit_teacher"
	target = strings.TrimSpace(target)
	ctx, span := s.startSpan(ctx, op, id, attribute.String("target.id", target))
	defer func() { endSpan(span, err); s.observe(ctx, model.KindTeacher, id, target, err) }()

	if err = s.ready(op); err != nil {
		return model.Record{}, err
	}
	if err = requireRole(op, id, model.RoleTeacher); err != nil {
		return model.Record{}, err
	}
	if target == "" {
		return model.Record{}, errs.Newf(op, errs.ErrValidation, "target_user_id is required")
	}
	if !s.roster.InRoster(target) {
		return model.Record{}, errs.Newf(op, errs.ErrTargetNotInRoster, "%s", target)
	}
	if err = scores.Validate(); err != nil {
		return model.Record{}, err
	}
	return s.store.SubmitTeacher(ctx, id.UserID, target, scores)
}

// observe records the outcome of a submission. Calls made before Start
// are not recorded.
func (s *Service) observe(ctx context.Context, kind model.Kind, id model.Identity, target string, err error) {
	if s.logger == nil {
		return
	}
	if err == nil {
		metrics.RecordSubmissionAccepted(string(kind))
		s.logger.Debug(ctx, "submission accepted",
			logger.String("kind", string(kind)),
			logger.String("user_id", id.UserID),
			logger.String("target", target))
		return
	}
	code := errs.Code(err)
	metrics.RecordSubmissionRejected(string(kind), code)
	s.logger.Info(ctx, "submission rejected",
		logger.String("kind", string(kind)),
		logger.String("user_id", id.UserID),
		logger.String("target", target),
		logger.String("code", code))
}
