package bookings

import (
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
)

// Change is an update that only applies while the booking is still in From.
type Change struct {
	From    enums.BookingStatus
	Updates map[string]any
}

// PlanRelease toggles the released flag. Turning it on needs both names; turning
// it off returns the booking to Pending and clears the release fields.
func PlanRelease(b models.Booking, released bool, releaseTo, releaseBy string, now time.Time) (Change, error) {
	if !released {
		if b.Status != enums.BookingStatusReleased {
			return Change{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "a %s booking cannot be un-released", b.Status)
		}
		return Change{
			From: enums.BookingStatusReleased,
			Updates: map[string]any{
				"status":      enums.BookingStatusPending,
				"released_at": nil,
				"release_to":  nil,
				"release_by":  nil,
			},
		}, nil
	}

	if b.Status != enums.BookingStatusPending {
		return Change{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "a %s booking cannot be released", b.Status)
	}
	releaseTo, releaseBy = strings.TrimSpace(releaseTo), strings.TrimSpace(releaseBy)
	var missing []string
	if releaseTo == "" {
		missing = append(missing, "release_to")
	}
	if releaseBy == "" {
		missing = append(missing, "release_by")
	}
	if len(missing) > 0 {
		return Change{}, pkgerrors.New(pkgerrors.CodeValidation, "release requires who received and who released the item").
			WithDetails(map[string]any{"missing": missing})
	}
	return Change{
		From: enums.BookingStatusPending,
		Updates: map[string]any{
			"status":      enums.BookingStatusReleased,
			"released_at": now,
			"release_to":  releaseTo,
			"release_by":  releaseBy,
		},
	}, nil
}

// PlanReturn toggles the returned flag, which is only reachable once released.
// Turning it off goes back to Released.
func PlanReturn(b models.Booking, returned bool, returnBy string) (Change, error) {
	if !returned {
		if b.Status != enums.BookingStatusReturned {
			return Change{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "a %s booking cannot be un-returned", b.Status)
		}
		return Change{
			From:    enums.BookingStatusReturned,
			Updates: map[string]any{"status": enums.BookingStatusReleased, "return_by": nil},
		}, nil
	}

	if b.Status != enums.BookingStatusReleased {
		return Change{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "a %s booking cannot be returned", b.Status)
	}
	returnBy = strings.TrimSpace(returnBy)
	if returnBy == "" {
		return Change{}, pkgerrors.New(pkgerrors.CodeValidation, "return_by is required").
			WithDetails(map[string]any{"field": "return_by"})
	}
	return Change{
		From:    enums.BookingStatusReleased,
		Updates: map[string]any{"status": enums.BookingStatusReturned, "return_by": returnBy},
	}, nil
}

// Edit carries booking field changes; nil leaves a field as it is.
type Edit struct {
	ServiceID  *uint
	OfficeID   *uint
	Purpose    *string
	BookedAt   *time.Time
	ReturnedAt *time.Time
}

func (e Edit) empty() bool {
	return e.ServiceID == nil && e.OfficeID == nil && e.Purpose == nil && e.BookedAt == nil && e.ReturnedAt == nil
}

// PlanEdit validates field edits. The booking details are frozen once released.
func PlanEdit(b models.Booking, e Edit) (map[string]any, error) {
	if e.empty() {
		return map[string]any{}, nil
	}
	if b.Status != enums.BookingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking details are locked once released")
	}

	updates := map[string]any{}
	bookedAt, returnedAt := b.BookedAt, b.ReturnedAt
	if e.ServiceID != nil {
		updates["service_id"] = *e.ServiceID
	}
	if e.OfficeID != nil {
		updates["office_id"] = *e.OfficeID
	}
	if e.Purpose != nil {
		purpose := strings.TrimSpace(*e.Purpose)
		if purpose == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "purpose is required").
				WithDetails(map[string]any{"field": "purpose"})
		}
		updates["purpose"] = purpose
	}
	if e.BookedAt != nil {
		bookedAt = *e.BookedAt
		updates["booked_at"] = bookedAt
	}
	if e.ReturnedAt != nil {
		returnedAt = e.ReturnedAt
		updates["returned_at"] = *returnedAt
	}
	if err := validateDates(bookedAt, returnedAt); err != nil {
		return nil, err
	}
	return updates, nil
}

func validateDates(bookedAt time.Time, returnedAt *time.Time) error {
	if bookedAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "booked_at is required").
			WithDetails(map[string]any{"field": "booked_at"})
	}
	if returnedAt != nil && returnedAt.Before(bookedAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "returned_at must not be before booked_at").
			WithDetails(map[string]any{"field": "returned_at"})
	}
	return nil
}
