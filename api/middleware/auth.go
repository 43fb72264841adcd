package middleware

import (
	"net/http"

	"github.com/angelmondragon/servicedesk-backend/api/responses"
	"github.com/angelmondragon/servicedesk-backend/api/validators"
	pkgAuth "github.com/angelmondragon/servicedesk-backend/pkg/auth"
	"github.com/angelmondragon/servicedesk-backend/pkg/auth/session"
	"github.com/angelmondragon/servicedesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
)

// Auth validates the bearer token, requires its session to still exist in Redis
// and seeds the request context with the caller.
func Auth(cfg config.JWTConfig, sessions session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" || claims.UserID == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if sessions != nil {
				ok, err := sessions.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
					return
				}
			}

			ctx := WithActor(r.Context(), types.Actor{UserID: claims.UserID, Role: claims.Role})
			ctx = withAccessID(ctx, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID)
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
