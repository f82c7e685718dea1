package service

import (
	"time"

	"github.com/okian/peereval/internal/adapters/repository"
	"github.com/okian/peereval/internal/domain/completion"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/scoring"
	"github.com/okian/peereval/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the score store. The service closes it on Stop.
func WithStore(st repository.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithIdentity sets the identity provider.
func WithIdentity(p IdentityProvider) Option {
	return func(s *Service) { s.identity = p }
}

// WithRoster sets the roster provider.
func WithRoster(p RosterProvider) Option {
	return func(s *Service) { s.roster = p }
}

// WithAssignments sets the peer assignment provider.
func WithAssignments(p AssignmentProvider) Option {
	return func(s *Service) { s.assignments = p }
}

// WithCatalog sets the reference catalog provider.
func WithCatalog(p CatalogProvider) Option {
	return func(s *Service) { s.catalog = p }
}

// WithScoringOptions configures the aggregator.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(s *Service) { s.scoringOpts = append(s.scoringOpts, opts...) }
}

// WithMatchingOptions configures the matcher.
func WithMatchingOptions(opts ...matching.Option) Option {
	return func(s *Service) { s.matchingOpts = append(s.matchingOpts, opts...) }
}

// WithRequirements sets the completion requirement counts.
func WithRequirements(req completion.Requirements) Option {
	return func(s *Service) { s.requirements = req }
}

// WithIdempotencySize bounds the number of remembered idempotency keys.
func WithIdempotencySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.idempotencySize = size
		}
	}
}

// WithIdempotencyTTL expires remembered idempotency keys after ttl. Zero keeps
// them until evicted by size.
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(s *Service) { s.idempotencyTTL = ttl }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
