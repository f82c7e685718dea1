package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/peereval/internal/adapters/auth"
	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
)

// Profile is the caller's account summary.
type Profile struct {
	Role        model.Role `json:"role"`
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	NextPath    string     `json:"next_path"`
}

// Login authenticates a password and returns a session.
func (s *Service) Login(ctx context.Context, role, userID, password string) (sess auth.Session, err error) {
	const op = "service.login"
	ctx, span := s.tracer.Start(ctx, op)
	span.SetAttributes(attribute.String("user.role", role), attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	if err = s.ready(op); err != nil {
		return auth.Session{}, err
	}
	r, ok := model.ParseRole(strings.ToLower(strings.TrimSpace(role)))
	if !ok {
		return auth.Session{}, errs.Newf(op, errs.ErrValidation, "unknown role %q", role)
	}
	if strings.TrimSpace(userID) == "" || password == "" {
		return auth.Session{}, errs.Newf(op, errs.ErrValidation, "user_id and password are required")
	}
	return s.identity.Login(ctx, r, userID, password)
}

// Authenticate resolves a bearer token to an identity.
func (s *Service) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	if err := s.ready("service.authenticate"); err != nil {
		return model.Identity{}, err
	}
	return s.identity.Authenticate(ctx, token)
}

// Logout revokes the given token.
func (s *Service) Logout(ctx context.Context, token string) (err error) {
	const op = "service.logout"
	ctx, span := s.tracer.Start(ctx, op)
	defer func() { endSpan(span, err) }()

	if err = s.ready(op); err != nil {
		return err
	}
	return s.identity.Logout(ctx, token)
}

// Me returns the profile of the caller.
func (s *Service) Me(ctx context.Context, id model.Identity) (Profile, error) {
	const op = "service.me"
	if err := s.ready(op); err != nil {
		return Profile{}, err
	}
	u, err := s.identity.Profile(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Role: u.Role, UserID: u.UserID, DisplayName: u.DisplayName, NextPath: auth.NextPath(u.Role)}, nil
}
