package seeding

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/pkg/logger"
)

// Defaults for an unset Config.
const (
	DefaultWorkers = 4
	DefaultTimeout = 10 * time.Second
)

var submitPaths = map[model.Kind]string{
	model.KindSelf:    "/api/scores/self",
	model.KindPeer:    "/api/scores/peer",
	model.KindTeacher: "/api/scores/teacher",
}

type runner struct {
	cfg   Config
	api   *Client
	gen   *Generator
	stats *Stats
	log   logger.Logger
}

// Run executes one seeding round against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	r := &runner{
		cfg:   cfg,
		api:   NewClient(cfg.BaseURL, cfg.Timeout),
		gen:   NewGenerator(cfg.Seed),
		stats: &Stats{StartTime: time.Now()},
		log:   logger.Get().Named("seeding"),
	}

	r.log.Info(ctx, "starting seeding run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("teacher", cfg.TeacherID),
		logger.Int("workers", cfg.Workers))

	if err := r.api.Get(ctx, "/health", nil); err != nil {
		return r.stats, fmt.Errorf("service health check failed: %w", err)
	}

	teacher, err := r.login(ctx, model.RoleTeacher, cfg.TeacherID)
	if err != nil {
		return r.stats, err
	}
	var roster studentsResponse
	if err := teacher.Get(ctx, "/api/teacher/students", &roster); err != nil {
		return r.stats, fmt.Errorf("list students: %w", err)
	}
	r.stats.Students = len(roster.Students)

	sessions, assignments, err := r.openStudentSessions(ctx, roster.Students)
	if err != nil {
		return r.stats, err
	}
	plan := r.gen.BuildPlan(roster.Students, assignments, cfg.TeacherID)

	if err := r.submitAll(ctx, roster.Students, sessions, teacher, plan); err != nil {
		return r.stats, err
	}
	if err := r.replayOne(ctx, teacher, plan); err != nil {
		return r.stats, err
	}

	if cfg.MasterID != "" {
		if err := r.verify(ctx, teacher); err != nil {
			return r.stats, err
		}
	}

	r.stats.EndTime = time.Now()
	r.stats.Duration = r.stats.EndTime.Sub(r.stats.StartTime)
	r.log.Info(ctx, "seeding run finished",
		logger.Int("students", r.stats.Students),
		logger.Int("submitted", int(r.stats.Submitted)),
		logger.Int("accepted", int(r.stats.Accepted)),
		logger.Int("duplicates", int(r.stats.Duplicates)),
		logger.Int("failed", int(r.stats.Failed)),
		logger.Duration("duration", r.stats.Duration))
	return r.stats, nil
}

func (r *runner) login(ctx context.Context, role model.Role, id string) (*Client, error) {
	c, err := r.api.Login(ctx, string(role), id, r.cfg.Password)
	if err != nil {
		return nil, err
	}
	atomic.AddInt64(&r.stats.Logins, 1)
	return c, nil
}

// openStudentSessions logs every student in and fetches their assignments.
func (r *runner) openStudentSessions(ctx context.Context, students []string) ([]*Client, map[string][]string, error) {
	sessions := make([]*Client, len(students))
	targets := make([][]string, len(students))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, s := range students {
		g.Go(func() error {
			c, err := r.login(gctx, model.RoleStudent, s)
			if err != nil {
				return err
			}
			var a assignmentResponse
			if err := c.Get(gctx, "/api/assignments/peers", &a); err != nil {
				return fmt.Errorf("assignments of %s: %w", s, err)
			}
			sessions[i], targets[i] = c, a.Targets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	assignments := make(map[string][]string, len(students))
	for i, s := range students {
		assignments[s] = targets[i]
	}
	return sessions, assignments, nil
}

// submitAll posts every student's plan concurrently, then the teacher's.
// Individual rejections are counted, not fatal.
func (r *runner) submitAll(ctx context.Context, students []string, sessions []*Client, teacher *Client, plan Plan) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, s := range students {
		c := sessions[i]
		g.Go(func() error {
			for _, sub := range plan.ByStudent[s] {
				r.submit(gctx, c, sub, uuid.NewString())
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, sub := range plan.Teacher {
		r.submit(ctx, teacher, sub, uuid.NewString())
	}
	return ctx.Err()
}

func (r *runner) submit(ctx context.Context, c *Client, sub Submission, key string) bool {
	body := map[string]any{"scores": sub.Scores}
	if sub.Kind != model.KindSelf {
		body["target_user_id"] = sub.Target
	}

	atomic.AddInt64(&r.stats.Submitted, 1)
	var resp submitResponse
	if err := c.Post(ctx, submitPaths[sub.Kind], body, key, &resp); err != nil {
		atomic.AddInt64(&r.stats.Failed, 1)
		r.log.Warn(ctx, "submission rejected",
			logger.String("kind", string(sub.Kind)),
			logger.String("rater", sub.Rater),
			logger.String("target", sub.Target),
			logger.Error(err))
		return false
	}
	if resp.Duplicate {
		atomic.AddInt64(&r.stats.Duplicates, 1)
	} else {
		atomic.AddInt64(&r.stats.Accepted, 1)
	}
	if r.cfg.Verbose {
		r.log.Debug(ctx, "submitted",
			logger.String("kind", string(sub.Kind)),
			logger.String("rater", sub.Rater),
			logger.String("target", sub.Target),
			logger.Bool("duplicate", resp.Duplicate))
	}
	return resp.Duplicate
}
