package controllers

import (
	"net/http"

	"github.com/angelmondragon/servicedesk-backend/api/middleware"
	"github.com/angelmondragon/servicedesk-backend/api/responses"
	"github.com/angelmondragon/servicedesk-backend/api/validators"
	"github.com/angelmondragon/servicedesk-backend/internal/assignments"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

type saveTimeBody struct {
	Minutes int `json:"minutes" validate:"gte=0"`
	Seconds int `json:"seconds" validate:"gte=0"`
}

// completeBody leaves required-field checks to the service so the missing list
// comes back in one error.
type completeBody struct {
	Remark       string `json:"remark"`
	Resolution   string `json:"resolution"`
	Testing      string `json:"testing"`
	TestScenario string `json:"test_scenario"`
	IPCRCodeID   *int64 `json:"ipcr_code_id" validate:"omitempty,gt=0"`
}

type linkBody struct {
	IPCRCodeID int64 `json:"ipcr_code_id" validate:"required,gt=0"`
}

// ListMyAssignments returns the caller's work; completed rows only with
// ?include_completed=true.
func ListMyAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("assignments"))
			return
		}
		includeCompleted, err := validators.ParseQueryBool(r, "include_completed", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListMine(r.Context(), middleware.ActorFromContext(r.Context()), includeCompleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func ProceedToWork(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("assignments"))
			return
		}
		id, err := validators.ParseIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ProceedToWork(r.Context(), middleware.ActorFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func SaveTime(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("assignments"))
			return
		}
		id, err := validators.ParseIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body saveTimeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.SaveTime(r.Context(), assignments.SaveTimeInput{
			Actor:        middleware.ActorFromContext(r.Context()),
			AssignmentID: id,
			Minutes:      body.Minutes,
			Seconds:      body.Seconds,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CompleteWork records the findings. A report outcome rides along when an
// output code was given; a failed report still answers 200.
func CompleteWork(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("assignments"))
			return
		}
		id, err := validators.ParseIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body completeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CompleteWork(r.Context(), assignments.CompleteInput{
			Actor:        middleware.ActorFromContext(r.Context()),
			AssignmentID: id,
			Details: assignments.WorkDetails{
				Remark:       body.Remark,
				Resolution:   body.Resolution,
				Testing:      body.Testing,
				TestScenario: body.TestScenario,
				IPCRCodeID:   body.IPCRCodeID,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func LinkAssignmentAccomplishment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("assignments"))
			return
		}
		id, err := validators.ParseIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body linkBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.LinkAccomplishment(r.Context(), assignments.LinkInput{
			Actor:        middleware.ActorFromContext(r.Context()),
			AssignmentID: id,
			IPCRCodeID:   body.IPCRCodeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
