package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func TestGenerateRotateRevoke(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	manager := &Manager{store: store, ttl: time.Hour}

	token, err := manager.Generate(ctx, "access-1")
	require.NoError(t, err)
	assert.Equal(t, token, store.data["sess:access-1"])

	ok, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = manager.Rotate(ctx, "access-1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	newID, newToken, err := manager.Rotate(ctx, "access-1", token)
	require.NoError(t, err)
	assert.NotEqual(t, "access-1", newID)
	assert.Equal(t, newToken, store.data["sess:"+newID])
	_, stillThere := store.data["sess:access-1"]
	assert.False(t, stillThere)

	_, _, err = manager.Rotate(ctx, "access-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	require.NoError(t, manager.Revoke(ctx, newID))
	ok, err = manager.HasSession(ctx, newID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyAccessIDRejected(t *testing.T) {
	manager := &Manager{store: newMockStore(), ttl: time.Hour}
	_, err := manager.Generate(context.Background(), " ")
	assert.Error(t, err)
	_, err = manager.HasSession(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, manager.Revoke(context.Background(), ""))
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{})
	assert.Error(t, err)
}
