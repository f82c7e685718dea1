package service

import (
	"context"

	"github.com/okian/peereval/internal/adapters/auth"
	"github.com/okian/peereval/internal/domain/model"
)

// IdentityProvider logs users in and resolves tokens.
type IdentityProvider interface {
	Login(ctx context.Context, role model.Role, userID, password string) (auth.Session, error)
	Authenticate(ctx context.Context, token string) (model.Identity, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, id model.Identity) (model.User, error)
}

// RosterProvider lists the students of the class, sorted by id.
type RosterProvider interface {
	Roster() []string
	InRoster(id string) bool
}

// AssignmentProvider lists the peers a rater must score.
type AssignmentProvider interface {
	Targets(rater string) []string
}

// CatalogProvider returns the reference entities.
type CatalogProvider interface {
	Catalog() []model.Entity
}
