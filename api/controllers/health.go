package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/servicedesk-backend/api/responses"
	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ServiceDesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings Postgres and Redis. The IPCR service is not probed; its
// outages only degrade reporting.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ServiceDesk-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		failed := false
		for name, p := range map[string]Pinger{"postgres": db, "redis": redis} {
			if p == nil {
				checks[name] = "skipped"
				continue
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				failed = true
				continue
			}
			checks[name] = "ok"
		}
		if failed {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
