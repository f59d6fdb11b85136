package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session errors.
var (
	ErrInvalidSession      = errors.New("invalid session token")
	ErrExpiredSession      = errors.New("session token has expired")
	ErrInvalidSecretLength = errors.New("JWT secret must be at least 32 characters")
)

// SessionClaims are the JWT claims carried by an API session token.
type SessionClaims struct {
	jwt.RegisteredClaims

	Alias   string `json:"alias"`
	Manager bool   `json:"manager"`
}

// SessionService issues and validates HS256 session tokens for the
// management API.
type SessionService struct {
	secret   []byte
	issuer   string
	duration time.Duration
}

// NewSessionService creates a session service. When secret is empty an
// ephemeral one is generated, invalidating sessions across restarts.
func NewSessionService(secret string, duration time.Duration) (*SessionService, error) {
	if secret == "" {
		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = base64.RawStdEncoding.EncodeToString(buf)
	}
	if len(secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if duration == 0 {
		duration = 1 * time.Hour
	}

	return &SessionService{
		secret:   []byte(secret),
		issuer:   "quarry",
		duration: duration,
	}, nil
}

// Issue creates a session token for an authenticated access token.
func (s *SessionService) Issue(token *Token) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.duration)

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   token.Alias,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Alias:   token.Alias,
		Manager: token.Manager,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies a session token.
func (s *SessionService) Validate(tokenString string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredSession
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
