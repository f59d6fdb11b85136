// Package auth implements access tokens and API sessions.
//
// Access tokens are alias/secret pairs with route-scoped permissions, stored
// with bcrypt-hashed secrets. Session tokens are short-lived JWTs issued to
// authenticated API clients.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hashing time against brute-force resistance.
const bcryptCost = 10

// MaxSecretLength is bcrypt's input limit; longer secrets would be silently
// truncated.
const MaxSecretLength = 72

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSecretTooLong      = errors.New("secret must be at most 72 characters")
	ErrSecretTooShort     = errors.New("secret must be at least 8 characters")
)

// Permission is the access level a route grants.
type Permission string

const (
	// PermissionRead allows artifact downloads.
	PermissionRead Permission = "read"

	// PermissionWrite allows downloads and deployments.
	PermissionWrite Permission = "write"
)

// Route scopes a permission to a path prefix. A path of "/" covers every
// repository.
type Route struct {
	Path       string     `json:"path"`
	Permission Permission `json:"permission"`
}

// Token is a deploy/access credential. The plaintext secret exists only at
// creation time; only the bcrypt hash is persisted.
type Token struct {
	ID         uuid.UUID `json:"id"`
	Alias      string    `json:"alias"`
	SecretHash string    `json:"secret_hash"`
	CreatedAt  time.Time `json:"created_at"`

	// Manager tokens may use the management API and implicitly hold write
	// access everywhere.
	Manager bool `json:"manager"`

	Routes []Route `json:"routes"`
}

// Verify checks a plaintext secret against the stored hash.
func (t *Token) Verify(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(t.SecretHash), []byte(secret)) == nil
}

// CanRead reports whether the token may download from path.
func (t *Token) CanRead(path string) bool {
	if t.Manager {
		return true
	}
	for _, route := range t.Routes {
		if routeMatches(route.Path, path) {
			return true
		}
	}
	return false
}

// CanWrite reports whether the token may deploy to path.
func (t *Token) CanWrite(path string) bool {
	if t.Manager {
		return true
	}
	for _, route := range t.Routes {
		if route.Permission == PermissionWrite && routeMatches(route.Path, path) {
			return true
		}
	}
	return false
}

// routeMatches reports whether path falls under the route prefix.
func routeMatches(routePath, path string) bool {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	routePath = strings.TrimSuffix(routePath, "/")
	if routePath == "" {
		return true
	}
	return path == routePath || strings.HasPrefix(path, routePath+"/")
}

// GenerateSecret returns a new random token secret.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashSecret bcrypt-hashes a plaintext secret.
func HashSecret(secret string) (string, error) {
	if len(secret) < 8 {
		return "", ErrSecretTooShort
	}
	if len(secret) > MaxSecretLength {
		return "", ErrSecretTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
