package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/servicedesk-backend/api/middleware"
	"github.com/angelmondragon/servicedesk-backend/api/responses"
	"github.com/angelmondragon/servicedesk-backend/api/validators"
	"github.com/angelmondragon/servicedesk-backend/internal/requests"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

const (
	maxNameLen    = 100
	maxRemarksLen = 2000
)

type publicRequestBody struct {
	CatsNo   string `json:"cats_no" validate:"max=20"`
	Name     string `json:"name" validate:"required,notblank,max=100"`
	OfficeID uint   `json:"office_id" validate:"required,gt=0"`
	Remarks  string `json:"remarks" validate:"required,notblank,max=2000"`
}

type classificationBody struct {
	CategoryID   *int    `json:"category_id"`
	ServiceID    *uint   `json:"service_id"`
	Prio         *string `json:"prio"`
	P3Agreed     *bool   `json:"p3_agreed"`
	NoOfAffected *int    `json:"no_of_affected"`
	ControlNo    *string `json:"control_no"`
	Details      *string `json:"details"`
	Checked      *bool   `json:"checked"`
}

func (b classificationBody) toClassification() (requests.Classification, error) {
	c := requests.Classification{
		CategoryID:   b.CategoryID,
		ServiceID:    b.ServiceID,
		P3Agreed:     b.P3Agreed,
		NoOfAffected: b.NoOfAffected,
		ControlNo:    b.ControlNo,
		Details:      b.Details,
		Checked:      b.Checked,
	}
	if b.Prio != nil {
		prio, err := enums.ParsePriority(*b.Prio)
		if err != nil {
			return c, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority").WithDetails(map[string]any{"field": "prio"})
		}
		c.Priority = &prio
	}
	return c, nil
}

type createRequestBody struct {
	CatsNo   string `json:"cats_no" validate:"max=20"`
	Name     string `json:"name" validate:"required,notblank,max=100"`
	OfficeID uint   `json:"office_id" validate:"required,gt=0"`
	Remarks  string `json:"remarks" validate:"required,notblank,max=2000"`
	classificationBody
}

type updateClassificationBody struct {
	classificationBody
	Clear []string `json:"clear"`
}

type assignBody struct {
	UserIDs []uint `json:"user_ids" validate:"dive,gt=0"`
}

type returnByBody struct {
	ReturnBy string `json:"return_by" validate:"required,notblank,max=100"`
}

// PublicSubmitRequest takes an anonymous help request. It lands unclassified.
func PublicSubmitRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		var body publicRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.SubmitPublic(r.Context(), requests.PublicInput{
			CatsNo:   body.CatsNo,
			Name:     validators.SanitizeString(body.Name, maxNameLen),
			OfficeID: body.OfficeID,
			Remarks:  validators.SanitizeString(body.Remarks, maxRemarksLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

func CreateRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		var body createRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		classification, err := body.toClassification()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.Create(r.Context(), requests.CreateInput{
			Actor:          middleware.ActorFromContext(r.Context()),
			CatsNo:         body.CatsNo,
			Name:           validators.SanitizeString(body.Name, maxNameLen),
			OfficeID:       body.OfficeID,
			Remarks:        validators.SanitizeString(body.Remarks, maxRemarksLen),
			Classification: classification,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

// UpdateClassification patches triage fields; "clear" lists columns to null out.
func UpdateClassification(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		id, err := validators.ParseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateClassificationBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		classification, err := body.toClassification()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.UpdateClassification(r.Context(), requests.ClassificationInput{
			Actor:          middleware.ActorFromContext(r.Context()),
			RequestID:      id,
			Classification: classification,
			Clear:          body.Clear,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func GetRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		id, err := validators.ParseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.Get(r.Context(), middleware.ActorFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func GetRequestStatus(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		id, err := validators.ParseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := svc.GetStatus(r.Context(), middleware.ActorFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// ListRequests returns the triage queue ordered by status rank. Supports
// ?status=, ?offset= and ?limit=.
func ListRequests(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		var params requests.ListParams
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseAggregateStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			params.Status = &status
		}
		var err error
		if params.Offset, err = validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.Limit, err = validators.ParseQueryInt(r, "limit", 25, 1, 100); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), middleware.ActorFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetServiceTimes(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		id, err := validators.ParseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		times, err := svc.ServiceTimes(r.Context(), middleware.ActorFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, times)
	}
}

// AssignUsers replaces the assignee set with user_ids.
func AssignUsers(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		id, err := validators.ParseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body assignBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.AssignUsers(r.Context(), requests.AssignInput{
			Actor:     middleware.ActorFromContext(r.Context()),
			RequestID: id,
			UserIDs:   body.UserIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func SetReturnBy(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		id, err := validators.ParseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body returnByBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.SetReturnBy(r.Context(), requests.ReturnByInput{
			Actor:     middleware.ActorFromContext(r.Context()),
			RequestID: id,
			ReturnBy:  body.ReturnBy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}

func DeleteRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		id, err := validators.ParseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RestoreRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("requests"))
			return
		}
		id, err := validators.ParseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.ActorFromContext(r.Context())
		if err := svc.Restore(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}
