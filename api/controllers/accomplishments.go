package controllers

import (
	"net/http"

	"github.com/angelmondragon/servicedesk-backend/api/middleware"
	"github.com/angelmondragon/servicedesk-backend/api/responses"
	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

// ListOutputs returns the caller's IPCR output codes.
func ListOutputs(svc accomplishments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accomplishments"))
			return
		}
		outputs, err := svc.ListOutputs(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outputs)
	}
}
