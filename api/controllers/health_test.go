package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	resp, env := call(t, HealthReady(cfg, logger.Nop(), up, up), http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-ServiceDesk-Env"))
	assert.Contains(t, string(env.Data), `"postgres":"ok"`)

	resp, env = call(t, HealthReady(cfg, logger.Nop(), up, down), http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "down"}, env.Error.Details)
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp, env := call(t, HealthLive(cfg), http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"live"}`, string(env.Data))
}
