package accomplishments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/ipcr"
	"github.com/angelmondragon/servicedesk-backend/pkg/redis"
)

// OutputCache holds recently fetched output codes per employee code.
type OutputCache interface {
	Get(ctx context.Context, empCode string) ([]ipcr.OutputCode, bool, error)
	Set(ctx context.Context, empCode string, codes []ipcr.OutputCode) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	OutputCodesKey(empCode string) string
}

type redisOutputCache struct {
	store redisStore
	ttl   time.Duration
}

// NewRedisOutputCache caches output codes as JSON for ttl.
func NewRedisOutputCache(store redisStore, ttl time.Duration) OutputCache {
	return &redisOutputCache{store: store, ttl: ttl}
}

func (c *redisOutputCache) Get(ctx context.Context, empCode string) ([]ipcr.OutputCode, bool, error) {
	raw, err := c.store.Get(ctx, c.store.OutputCodesKey(empCode))
	if err != nil {
		if redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var codes []ipcr.OutputCode
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, false, err
	}
	return codes, true, nil
}

func (c *redisOutputCache) Set(ctx context.Context, empCode string, codes []ipcr.OutputCode) error {
	payload, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.store.OutputCodesKey(empCode), string(payload), c.ttl)
}
