package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace      = "sd"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	sessionPrefix     = "session"
	outputCodesPrefix = "ipcr_outputs"
)

// ErrNotInitialized is returned by every call on a zero Client.
var ErrNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client wraps the redis helpers the service desk needs: sessions, idempotency
// records, login rate limits and the output code cache.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore exposes the operations used by the idempotency middleware.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Set(context.Context, string, any, time.Duration) error
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_addr", opts.Addr), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig prefers SERVICEDESK_REDIS_URL; pool and timeout settings
// fill whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address == "":
		return nil, errors.New("redis url or address is required")
	}

	fill(&opts.DB, cfg.DB)
	fill(&opts.PoolSize, cfg.PoolSize)
	fill(&opts.MinIdleConns, cfg.MinIdleConns)
	fill(&opts.DialTimeout, cfg.DialTimeout)
	fill(&opts.ReadTimeout, cfg.ReadTimeout)
	fill(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fill[T comparable](dst *T, fallback T) {
	var zero T
	if *dst == zero {
		*dst = fallback
	}
}

// Set stores a value with an optional TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.store == nil {
		return ErrNotInitialized
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns the string stored at key, or redis.Nil when absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c == nil || c.store == nil {
		return "", ErrNotInitialized
	}
	return c.store.Get(ctx, key).Result()
}

// SetNX sets a value only if the key does not exist yet.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c == nil || c.store == nil {
		return false, ErrNotInitialized
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// FixedWindowAllow counts one hit against scope and reports whether the count
// is still within limit. The window starts at the first hit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c == nil || c.store == nil {
		return false, 0, ErrNotInitialized
	}
	key := c.RateLimitKey(scope)
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 && window > 0 {
		if err := c.store.Expire(ctx, key, window).Err(); err != nil {
			return false, count, err
		}
	}
	return count <= limit, count, nil
}

// IdempotencyKey returns a namespaced key for idempotency storage.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

// RateLimitKey returns a namespaced key for rate limit counters.
func (c *Client) RateLimitKey(scope string) string {
	return buildKey(rateLimitPrefix, scope)
}

// AccessSessionKey builds the key holding the refresh token of one access session.
func (c *Client) AccessSessionKey(accessID string) string {
	return buildKey(sessionPrefix, "access", accessID)
}

// OutputCodesKey builds the cache key for an employee's output codes.
func (c *Client) OutputCodesKey(empCode string) string {
	return buildKey(outputCodesPrefix, empCode)
}

// Del removes the provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c == nil || c.store == nil {
		return ErrNotInitialized
	}
	return c.store.Del(ctx, keys...).Err()
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.store == nil {
		return ErrNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// IsNil reports whether err is the redis "key does not exist" sentinel.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, ":")
}
