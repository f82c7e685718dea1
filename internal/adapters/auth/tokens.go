// Package auth implements password login, signed session tokens and revocation.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
)

// MinSecretLen is the shortest accepted HMAC secret.
const MinSecretLen = 16

// Claims are the JWT claims carried by a session token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Token is a freshly issued session token.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// signer issues and verifies HS256 tokens.
type signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func (s *signer) issue(role model.Role, userID string) (Token, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	id := uuid.NewString()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ID: id, ExpiresAt: exp}, nil
}

func (s *signer) verify(raw string) (*Claims, error) {
	const op = "auth.verify"
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errs.Wrap(op, errs.ErrInvalidToken, err)
	}
	if _, ok := model.ParseRole(claims.Role); !ok || claims.Subject == "" || claims.ID == "" {
		return nil, errs.New(op, errs.ErrInvalidToken)
	}
	return claims, nil
}
