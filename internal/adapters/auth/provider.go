package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
	"github.com/okian/peereval/pkg/logger"
	"github.com/okian/peereval/pkg/metrics"
)

// TokenType is the scheme reported with issued tokens.
const TokenType = "bearer"

// Login outcomes recorded in metrics.
const (
	outcomeSuccess   = "success"
	outcomeFailure   = "failure"
	outcomeThrottled = "throttled"
)

var nextPaths = map[model.Role]string{
	model.RoleTeacher: "/teacher/index.html",
	model.RoleStudent: "/student/index.html",
	model.RoleMaster:  "/master/index.html",
}

// NextPath returns the landing page for role.
func NextPath(role model.Role) string { return nextPaths[role] }

// UserLookup finds accounts by role and id.
type UserLookup interface {
	User(role model.Role, id string) (model.User, bool)
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Role        model.Role `json:"role"`
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	NextPath    string     `json:"next_path"`
}

// Provider authenticates users against a UserLookup and manages tokens.
type Provider struct {
	users      UserLookup
	signer     signer
	revoked    *revocations
	limiter    *loginLimiter
	loginRate  float64
	loginBurst int
	now        func() time.Time
	log        logger.Logger
}

// NewProvider creates a Provider signing tokens with secret.
func NewProvider(users UserLookup, secret string, opts ...Option) (*Provider, error) {
	if users == nil {
		return nil, ErrNoDirectory
	}
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	p := &Provider{
		users:      users,
		signer:     signer{secret: []byte(secret), issuer: DefaultIssuer, ttl: DefaultTTL},
		revoked:    newRevocations(),
		loginRate:  DefaultLoginRate,
		loginBurst: DefaultBurst,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Named("auth")
	}
	p.signer.now = p.now
	p.limiter = newLoginLimiter(p.loginRate, p.loginBurst, p.now)
	return p, nil
}

// Login checks the password of (role, userID) and issues a session token.
func (p *Provider) Login(ctx context.Context, role model.Role, userID, password string) (Session, error) {
	const op = "auth.login"
	userID = strings.TrimSpace(userID)

	if !p.limiter.allow(string(role) + ":" + userID) {
		metrics.RecordLogin(outcomeThrottled)
		return Session{}, errs.New(op, errs.ErrRateLimited)
	}
	if _, ok := model.ParseRole(string(role)); !ok {
		metrics.RecordLogin(outcomeFailure)
		return Session{}, errs.Newf(op, errs.ErrValidation, "unknown role %q", role)
	}
	u, ok := p.users.User(role, userID)
	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		metrics.RecordLogin(outcomeFailure)
		p.log.Info(ctx, "login rejected", logger.String("role", string(role)), logger.String("user_id", userID))
		return Session{}, errs.Newf(op, errs.ErrUnauthenticated, "invalid credentials")
	}

	tok, err := p.signer.issue(u.Role, u.UserID)
	if err != nil {
		return Session{}, errs.Wrap(op, errs.ErrUnauthenticated, err)
	}
	metrics.RecordLogin(outcomeSuccess)
	return Session{
		AccessToken: tok.Value,
		TokenType:   TokenType,
		ExpiresAt:   tok.ExpiresAt,
		Role:        u.Role,
		UserID:      u.UserID,
		DisplayName: u.DisplayName,
		NextPath:    NextPath(u.Role),
	}, nil
}

// Authenticate resolves a token to its identity. Expired, revoked, forged or
// orphaned tokens yield errs.ErrInvalidToken.
func (p *Provider) Authenticate(_ context.Context, token string) (model.Identity, error) {
	const op = "auth.authenticate"
	if strings.TrimSpace(token) == "" {
		return model.Identity{}, errs.New(op, errs.ErrUnauthenticated)
	}
	claims, err := p.signer.verify(token)
	if err != nil {
		return model.Identity{}, err
	}
	if p.revoked.revoked(claims.ID) {
		return model.Identity{}, errs.Newf(op, errs.ErrInvalidToken, "token revoked")
	}
	role := model.Role(claims.Role)
	if _, ok := p.users.User(role, claims.Subject); !ok {
		return model.Identity{}, errs.Newf(op, errs.ErrInvalidToken, "unknown user")
	}
	return model.Identity{Role: role, UserID: claims.Subject}, nil
}

// Logout revokes token until it expires.
func (p *Provider) Logout(ctx context.Context, token string) error {
	const op = "auth.logout"
	claims, err := p.signer.verify(token)
	if err != nil {
		return err
	}
	if p.revoked.revoked(claims.ID) {
		return errs.Newf(op, errs.ErrInvalidToken, "token revoked")
	}
	p.revoked.revoke(claims.ID, claims.ExpiresAt.Time, p.now())
	metrics.RecordTokenRevoked()
	p.log.Debug(ctx, "token revoked", logger.String("user_id", claims.Subject))
	return nil
}

// Profile returns the account behind id.
func (p *Provider) Profile(_ context.Context, id model.Identity) (model.User, error) {
	u, ok := p.users.User(id.Role, id.UserID)
	if !ok {
		return model.User{}, errs.New("auth.profile", errs.ErrNotFound)
	}
	return u, nil
}

// Mint issues a token for an existing account without a password check. It
// serves operator tooling that already holds the signing secret.
func (p *Provider) Mint(role model.Role, userID string) (Token, error) {
	if _, ok := p.users.User(role, userID); !ok {
		return Token{}, errs.Newf("auth.mint", errs.ErrNotFound, "%s %s", role, userID)
	}
	return p.signer.issue(role, userID)
}

// RevokedCount returns the number of revoked, unexpired token ids.
func (p *Provider) RevokedCount() int { return p.revoked.size() }
