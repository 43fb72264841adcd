package controllers

import (
	"net/http"

	"github.com/angelmondragon/servicedesk-backend/api/middleware"
	"github.com/angelmondragon/servicedesk-backend/api/responses"
	"github.com/angelmondragon/servicedesk-backend/api/validators"
	"github.com/angelmondragon/servicedesk-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

// AuthLogin trades email and password for a token pair.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AuthRefresh rotates the session behind an (possibly expired) access token.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Refresh(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func unavailable(name string) error {
	return pkgerrors.Newf(pkgerrors.CodeDependency, "%s service unavailable", name)
}
