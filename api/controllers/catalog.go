package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/servicedesk-backend/api/responses"
	"github.com/angelmondragon/servicedesk-backend/api/validators"
	"github.com/angelmondragon/servicedesk-backend/internal/catalog"
	"github.com/angelmondragon/servicedesk-backend/internal/users"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

type StaffLister interface {
	ListActive(ctx context.Context) ([]models.User, error)
}

func ListOffices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		offices, err := svc.ListOffices(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]map[string]any, 0, len(offices))
		for _, o := range offices {
			out = append(out, map[string]any{"id": o.ID, "officename": o.OfficeName})
		}
		responses.WriteSuccess(w, out)
	}
}

func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		responses.WriteSuccess(w, svc.ListCategories())
	}
}

// ListServices optionally narrows to ?category_id=.
func ListServices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		category, err := validators.ParseQueryOptionalInt(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListServices(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]map[string]any, 0, len(rows))
		for _, s := range rows {
			out = append(out, map[string]any{
				"id":                  s.ID,
				"service_type":        s.ServiceType,
				"classification":      s.Classification,
				"classification_code": s.ClassificationCode,
				"category":            s.Category,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// ListStaff feeds the assignee picker with active users.
func ListStaff(repo StaffLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		rows, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff"))
			return
		}
		out := make([]*users.Summary, 0, len(rows))
		for i := range rows {
			out = append(out, users.SummaryOf(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
