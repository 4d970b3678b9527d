package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/aimoney/aimoney-api/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenSecretMissing is returned when no signing secret is configured
var ErrTokenSecretMissing = errors.New("session signing secret is not configured")

// SessionClaims are the claims carried by session tokens issued at login.
// The JSON names match what the session middleware reads back.
type SessionClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues HS256 session tokens
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService creates a token issuer
func NewTokenService(secret, issuer, audience string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue signs a session token for the user and returns it with its expiry
func (s *TokenService) Issue(user *models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrTokenSecretMissing
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := SessionClaims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if user.Image != nil {
		claims.Picture = *user.Image
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, expiresAt, nil
}
