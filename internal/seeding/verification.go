package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/pkg/logger"
)

// ErrVerification reports a report that disagrees with what was submitted.
var ErrVerification = errors.New("verification failed")

// replayOne resends a teacher submission twice under one key and expects the
// second post to be acknowledged as a duplicate.
func (r *runner) replayOne(ctx context.Context, teacher *Client, plan Plan) error {
	if len(plan.Teacher) == 0 {
		return nil
	}
	sub := plan.Teacher[0]
	key := uuid.NewString()
	r.submit(ctx, teacher, sub, key)
	if !r.submit(ctx, teacher, sub, key) {
		return fmt.Errorf("%w: replayed idempotency key was not reported as duplicate", ErrVerification)
	}
	return nil
}

// verify fetches the master summary and the teacher completion report and
// checks their class sizes against the roster.
func (r *runner) verify(ctx context.Context, teacher *Client) error {
	master, err := r.login(ctx, model.RoleMaster, r.cfg.MasterID)
	if err != nil {
		return err
	}

	var sum summaryResponse
	if err := master.Get(ctx, "/api/master/summary", &sum); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	var comp completionResponse
	if err := teacher.Get(ctx, "/api/teacher/completion", &comp); err != nil {
		return fmt.Errorf("completion: %w", err)
	}
	r.stats.CompleteCount = sum.CompleteCount
	r.stats.AllDoneCount = comp.AllDoneCount

	if sum.ClassSize != r.stats.Students || comp.ClassSize != r.stats.Students {
		return fmt.Errorf("%w: class size %d/%d, roster %d", ErrVerification, sum.ClassSize, comp.ClassSize, r.stats.Students)
	}
	if r.stats.Failed == 0 && sum.CompleteCount != r.stats.Students {
		r.log.Warn(ctx, "students incomplete after a clean round; check peer assignments",
			logger.Int("complete", sum.CompleteCount),
			logger.Int("students", r.stats.Students))
	}
	r.log.Info(ctx, "reports verified",
		logger.Int("complete", sum.CompleteCount),
		logger.Int("all_done", comp.AllDoneCount))
	return nil
}
