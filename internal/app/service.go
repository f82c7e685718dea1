// Package service provides the role-gated evaluation operations consumed by
// the HTTP API and the operator CLI.
package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/peereval/internal/adapters/repository"
	"github.com/okian/peereval/internal/domain/completion"
	"github.com/okian/peereval/internal/domain/dedupe"
	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/internal/domain/scoring"
	"github.com/okian/peereval/pkg/logger"
	"github.com/okian/peereval/pkg/metrics"
)

const tracerName = "github.com/okian/peereval/internal/app"

// Service wires the store, providers and domain components together.
type Service struct {
	mu sync.RWMutex

	store       repository.Store
	identity    IdentityProvider
	roster      RosterProvider
	assignments AssignmentProvider
	catalog     CatalogProvider

	aggregator *scoring.Aggregator
	matcher    *matching.Matcher
	reporter   *completion.Reporter
	deduper    dedupe.Deduper

	scoringOpts     []scoring.Option
	matchingOpts    []matching.Option
	requirements    completion.Requirements
	idempotencySize int
	idempotencyTTL  time.Duration

	tracer  trace.Tracer
	started bool
	logger  logger.Logger
}

// New constructs a Service. Dependencies are checked by Start.
func New(opts ...Option) *Service {
	s := &Service{
		requirements:    completion.DefaultRequirements(),
		idempotencySize: dedupe.DefaultMaxSize,
		tracer:          otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates dependencies and builds the domain components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	switch {
	case s.store == nil:
		return ErrMissingStore
	case s.identity == nil:
		return ErrMissingIdentity
	case s.roster == nil:
		return ErrMissingRoster
	case s.assignments == nil:
		return ErrMissingAssignments
	case s.catalog == nil:
		return ErrMissingCatalog
	}

	s.aggregator = scoring.NewAggregator(s.scoringOpts...)
	s.matcher = matching.NewMatcher(s.catalog.Catalog(), s.matchingOpts...)
	s.reporter = completion.NewReporter(s.requirements)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.idempotencySize),
		dedupe.WithTTL(s.idempotencyTTL),
	)

	s.started = true
	w := s.aggregator.Weights()
	s.logger.Info(ctx, "evaluation service started",
		logger.Int("roster", len(s.roster.Roster())),
		logger.Int("catalog", s.matcher.Size()),
		logger.Float64("weightTeacher", w.Teacher),
		logger.Float64("weightSelf", w.Self),
		logger.Float64("weightPeer", w.Peer),
		logger.Int("minPeerReceived", s.aggregator.MinPeerReceived()),
	)
	return nil
}

// Stop closes the store. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "failed to close store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "evaluation service stopped")
}

func (s *Service) ready(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return errs.Wrap(op, errs.ErrPersistence, ErrNotStarted)
	}
	return nil
}

// SeenAndRecord atomically checks an idempotency key and records it if new.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	if s.deduper == nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, key)
	if seen {
		metrics.RecordSubmissionDuplicate()
	}
	return seen
}

// Unrecord forgets an idempotency key after a failed submission.
func (s *Service) Unrecord(ctx context.Context, key string) {
	if s.deduper != nil {
		s.deduper.Unrecord(ctx, key)
	}
}

// Size returns the number of remembered idempotency keys.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Stats is a snapshot for monitoring.
type Stats struct {
	Started         bool              `json:"started"`
	RosterSize      int               `json:"roster_size"`
	CatalogSize     int               `json:"catalog_size"`
	IdempotencyKeys int64             `json:"idempotency_keys"`
	Records         repository.Counts `json:"records"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	if s.ready("service.stats") != nil {
		return Stats{}, nil
	}
	c, err := s.store.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Started:         true,
		RosterSize:      len(s.roster.Roster()),
		CatalogSize:     s.matcher.Size(),
		IdempotencyKeys: s.Size(),
		Records:         c,
	}, nil
}

// startSpan opens a span for op tagged with the caller.
func (s *Service) startSpan(ctx context.Context, op string, id model.Identity, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("user.id", id.UserID),
		attribute.String("user.role", string(id.Role)),
	)
	return s.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errs.Code(err))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// requireRole rejects callers whose role differs from want.
func requireRole(op string, id model.Identity, want model.Role) error {
	if id.Role != want {
		return errs.Newf(op, errs.ErrForbidden, "%s role required", want)
	}
	return nil
}
