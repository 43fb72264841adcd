package bookings

import (
	"testing"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bookedOn = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	now      = time.Date(2026, 5, 4, 2, 15, 0, 0, time.UTC)
)

func booking(status enums.BookingStatus) models.Booking {
	return models.Booking{ID: 9, Purpose: "Projector for seminar", BookedAt: bookedOn, Status: status}
}

// applyChange mimics the guarded update on an in-memory booking.
func applyChange(t *testing.T, b models.Booking, c Change) models.Booking {
	t.Helper()
	require.Equal(t, c.From, b.Status)
	for col, v := range c.Updates {
		switch col {
		case "status":
			b.Status = v.(enums.BookingStatus)
		case "released_at":
			if v == nil {
				b.ReleasedAt = nil
			} else {
				at := v.(time.Time)
				b.ReleasedAt = &at
			}
		case "release_to":
			b.ReleaseTo = strOrNil(v)
		case "release_by":
			b.ReleaseBy = strOrNil(v)
		case "return_by":
			b.ReturnBy = strOrNil(v)
		default:
			t.Fatalf("unexpected column %s", col)
		}
	}
	return b
}

func strOrNil(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

func TestReleaseToggleIsSymmetric(t *testing.T) {
	start := booking(enums.BookingStatusPending)

	on, err := PlanRelease(start, true, " Maria ", "Jose", now)
	require.NoError(t, err)
	released := applyChange(t, start, on)
	assert.Equal(t, enums.BookingStatusReleased, released.Status)
	require.NotNil(t, released.ReleaseTo)
	assert.Equal(t, "Maria", *released.ReleaseTo)
	assert.Equal(t, now, *released.ReleasedAt)

	off, err := PlanRelease(released, false, "", "", now)
	require.NoError(t, err)
	back := applyChange(t, released, off)
	assert.Equal(t, start, back)
}

func TestReturnToggleIsSymmetric(t *testing.T) {
	released := booking(enums.BookingStatusReleased)
	released.ReleaseTo, released.ReleaseBy = strOrNil("Maria"), strOrNil("Jose")

	on, err := PlanReturn(released, true, "Pedro")
	require.NoError(t, err)
	returned := applyChange(t, released, on)
	assert.Equal(t, enums.BookingStatusReturned, returned.Status)
	assert.Equal(t, "Pedro", *returned.ReturnBy)

	off, err := PlanReturn(returned, false, "")
	require.NoError(t, err)
	assert.Equal(t, released, applyChange(t, returned, off))
}

func TestReleaseRequiresNames(t *testing.T) {
	_, err := PlanRelease(booking(enums.BookingStatusPending), true, "", " ", now)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, map[string]any{"missing": []string{"release_to", "release_by"}}, pkgerrors.As(err).Details())

	_, err = PlanReturn(booking(enums.BookingStatusReleased), true, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestToggleRejectsWrongState(t *testing.T) {
	cases := []struct {
		name string
		plan func() error
	}{
		{"release returned", func() error {
			_, err := PlanRelease(booking(enums.BookingStatusReturned), true, "a", "b", now)
			return err
		}},
		{"unrelease returned", func() error {
			_, err := PlanRelease(booking(enums.BookingStatusReturned), false, "", "", now)
			return err
		}},
		{"unrelease pending", func() error {
			_, err := PlanRelease(booking(enums.BookingStatusPending), false, "", "", now)
			return err
		}},
		{"return pending", func() error {
			_, err := PlanReturn(booking(enums.BookingStatusPending), true, "a")
			return err
		}},
		{"unreturn released", func() error {
			_, err := PlanReturn(booking(enums.BookingStatusReleased), false, "")
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, pkgerrors.IsCode(tc.plan(), pkgerrors.CodeStateConflict))
		})
	}
}

func TestPlanEdit(t *testing.T) {
	purpose := "  Laptop  "
	later := bookedOn.AddDate(0, 0, 2)

	updates, err := PlanEdit(booking(enums.BookingStatusPending), Edit{Purpose: &purpose, ReturnedAt: &later})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"purpose": "Laptop", "returned_at": later}, updates)

	updates, err = PlanEdit(booking(enums.BookingStatusReleased), Edit{})
	require.NoError(t, err)
	assert.Empty(t, updates)

	_, err = PlanEdit(booking(enums.BookingStatusReleased), Edit{Purpose: &purpose})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	blank := " "
	_, err = PlanEdit(booking(enums.BookingStatusPending), Edit{Purpose: &blank})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	earlier := bookedOn.AddDate(0, 0, -1)
	_, err = PlanEdit(booking(enums.BookingStatusPending), Edit{ReturnedAt: &earlier})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, map[string]any{"field": "returned_at"}, pkgerrors.As(err).Details())
}

func TestEventOf(t *testing.T) {
	b := booking(enums.BookingStatusReleased)
	b.Service = &models.Service{ServiceType: "Projector"}
	b.Office = &models.Office{OfficeName: "Records"}

	ev := EventOf(b)
	assert.Equal(t, "Projector - Records - Released", ev.Title)
	assert.Equal(t, bookedOn, ev.End)

	ret := bookedOn.AddDate(0, 0, 3)
	b.ReturnedAt, b.Service, b.Office = &ret, nil, nil
	ev = EventOf(b)
	assert.Equal(t, "Unknown service - Unknown office - Released", ev.Title)
	assert.Equal(t, ret, ev.End)
}

func TestFromModelDerivesFlags(t *testing.T) {
	assert.False(t, FromModel(booking(enums.BookingStatusPending)).Released)
	dto := FromModel(booking(enums.BookingStatusReturned))
	assert.True(t, dto.Released)
	assert.True(t, dto.Returned)
}
