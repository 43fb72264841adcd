// Package session keeps refresh tokens in Redis keyed by the access token's jti,
// so an access token is only honoured while its session exists.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	redisclient "github.com/angelmondragon/servicedesk-backend/pkg/redis"
	"github.com/google/uuid"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errAccessIDRequired    = errors.New("access id is required")
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// Checker is the read-only surface the auth middleware needs.
type Checker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager creates, rotates and revokes refresh sessions.
type Manager struct {
	store store
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis. The refresh TTL must
// outlive the access token.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute; ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: client, ttl: ttl}, nil
}

// Generate stores a new refresh token for accessID and returns it.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errAccessIDRequired
	}
	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate swaps a valid refresh token for a new session id and token. The old
// session is removed.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	oldKey := m.store.AccessSessionKey(oldAccessID)
	stored, err := m.store.Get(ctx, oldKey)
	if err != nil {
		if redisclient.IsNil(err) {
			return "", "", ErrInvalidRefreshToken
		}
		return "", "", err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := m.Generate(ctx, newAccessID)
	if err != nil {
		return "", "", err
	}
	if err := m.store.Del(ctx, oldKey); err != nil {
		return "", "", err
	}
	return newAccessID, newToken, nil
}

// Revoke ends the session tied to accessID.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errAccessIDRequired
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

// HasSession reports whether accessID still has a live refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, errAccessIDRequired
	}
	if _, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID)); err != nil {
		if redisclient.IsNil(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces the identifier used as the JWT jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
