package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domain "github.com/gravadigital/urna-api/internal/domain/audit"
)

const tokenIssuer = "urna-api"

// DefaultTokenTTL applies when NewTokens gets a non-positive ttl
const DefaultTokenTTL = 12 * time.Hour

var ErrInvalidToken = errors.New("invalid session token")

// Claims is the JWT body of a session token
type Claims struct {
	Role        domain.Role `json:"role"`
	Name        string      `json:"name"`
	WorkspaceID string      `json:"workspace_id,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token issuer
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces time.Now, used by tests
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	t.now = now
	return t
}

// Issue signs a token for sess and returns it with its expiry
func (t *Tokens) Issue(sess Session) (string, time.Time, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)

	claims := Claims{
		Role:        sess.Role,
		Name:        sess.Actor.Name,
		WorkspaceID: sess.WorkspaceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   sess.Actor.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies raw and rebuilds the session it was issued for
func (t *Tokens) Parse(raw string) (Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.Role.Valid() || claims.Subject == "" {
		return Session{}, ErrInvalidToken
	}

	return Session{
		Role:        claims.Role,
		Actor:       domain.Actor{ID: claims.Subject, Name: claims.Name, Role: claims.Role},
		WorkspaceID: claims.WorkspaceID,
	}, nil
}
