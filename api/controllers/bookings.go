package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/api/middleware"
	"github.com/angelmondragon/servicedesk-backend/api/responses"
	"github.com/angelmondragon/servicedesk-backend/api/validators"
	"github.com/angelmondragon/servicedesk-backend/internal/bookings"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

type createBookingBody struct {
	ServiceID  uint    `json:"service_id" validate:"required,gt=0"`
	OfficeID   uint    `json:"office_id" validate:"required,gt=0"`
	Purpose    string  `json:"purpose" validate:"required,notblank,max=2000"`
	BookedAt   string  `json:"booked_at" validate:"required"`
	ReturnedAt *string `json:"returned_at"`
	IPCRCodeID *int64  `json:"ipcr_code_id" validate:"omitempty,gt=0"`
}

type updateBookingBody struct {
	ServiceID  *uint   `json:"service_id" validate:"omitempty,gt=0"`
	OfficeID   *uint   `json:"office_id" validate:"omitempty,gt=0"`
	Purpose    *string `json:"purpose" validate:"omitempty,max=2000"`
	BookedAt   *string `json:"booked_at"`
	ReturnedAt *string `json:"returned_at"`
	IPCRCodeID *int64  `json:"ipcr_code_id" validate:"omitempty,gt=0"`
}

type releaseBody struct {
	Released  *bool  `json:"released" validate:"required"`
	ReleaseTo string `json:"release_to" validate:"max=100"`
	ReleaseBy string `json:"release_by" validate:"max=100"`
}

type returnBody struct {
	Returned *bool  `json:"returned" validate:"required"`
	ReturnBy string `json:"return_by" validate:"max=100"`
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value, err := time.Parse(validators.DateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dates use YYYY-MM-DD").WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}

// ListBookings feeds the calendar. ?from and ?to are inclusive dates.
func ListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bookings"))
			return
		}
		var filter bookings.RangeFilter
		var err error
		if filter.From, err = validators.ParseQueryDate(r, "from", false); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.To, err = validators.ParseQueryDate(r, "to", true); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseBookingStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			filter.Status = &status
		}

		events, err := svc.List(r.Context(), middleware.ActorFromContext(r.Context()), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}

func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bookings"))
			return
		}
		var body createBookingBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookedAt, err := parseDate("booked_at", &body.BookedAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		returnedAt, err := parseDate("returned_at", body.ReturnedAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), bookings.CreateInput{
			Actor:      middleware.ActorFromContext(r.Context()),
			ServiceID:  body.ServiceID,
			OfficeID:   body.OfficeID,
			Purpose:    body.Purpose,
			BookedAt:   *bookedAt,
			ReturnedAt: returnedAt,
			IPCRCodeID: body.IPCRCodeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bookings"))
			return
		}
		id, err := validators.ParseIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		b, err := svc.Get(r.Context(), middleware.ActorFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, b)
	}
}

func UpdateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bookings"))
			return
		}
		id, err := validators.ParseIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateBookingBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		edit := bookings.Edit{ServiceID: body.ServiceID, OfficeID: body.OfficeID, Purpose: body.Purpose}
		if edit.BookedAt, err = parseDate("booked_at", body.BookedAt); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if edit.ReturnedAt, err = parseDate("returned_at", body.ReturnedAt); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), bookings.UpdateInput{
			Actor:      middleware.ActorFromContext(r.Context()),
			BookingID:  id,
			Edit:       edit,
			IPCRCodeID: body.IPCRCodeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func SetBookingReleased(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bookings"))
			return
		}
		id, err := validators.ParseIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body releaseBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		b, err := svc.SetReleased(r.Context(), bookings.ReleaseInput{
			Actor:     middleware.ActorFromContext(r.Context()),
			BookingID: id,
			Released:  *body.Released,
			ReleaseTo: body.ReleaseTo,
			ReleaseBy: body.ReleaseBy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, b)
	}
}

func SetBookingReturned(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bookings"))
			return
		}
		id, err := validators.ParseIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body returnBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		b, err := svc.SetReturned(r.Context(), bookings.ReturnInput{
			Actor:     middleware.ActorFromContext(r.Context()),
			BookingID: id,
			Returned:  *body.Returned,
			ReturnBy:  body.ReturnBy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, b)
	}
}

func LinkBookingAccomplishment(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("bookings"))
			return
		}
		id, err := validators.ParseIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body linkBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.LinkAccomplishment(r.Context(), bookings.LinkInput{
			Actor:      middleware.ActorFromContext(r.Context()),
			BookingID:  id,
			IPCRCodeID: body.IPCRCodeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
