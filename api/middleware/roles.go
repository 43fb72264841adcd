package middleware

import (
	"net/http"

	"github.com/angelmondragon/servicedesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

// RequireAdmin stops non-admin callers before the handler runs. Services still
// check the role themselves.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ActorFromContext(r.Context()).IsAdmin() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
