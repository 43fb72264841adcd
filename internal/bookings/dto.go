package bookings

import (
	"time"

	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// BookingDTO is the API shape of a booking.
type BookingDTO struct {
	ID           uint                `json:"id"`
	ServiceID    uint                `json:"service_id"`
	ServiceType  string              `json:"service_type,omitempty"`
	OfficeID     uint                `json:"office_id"`
	OfficeName   string              `json:"office_name,omitempty"`
	Purpose      string              `json:"purpose"`
	BookedAt     time.Time           `json:"booked_at"`
	ReturnedAt   *time.Time          `json:"returned_at,omitempty"`
	Status       enums.BookingStatus `json:"status"`
	Released     bool                `json:"released"`
	Returned     bool                `json:"returned"`
	ReleasedAt   *time.Time          `json:"released_at,omitempty"`
	ReleaseTo    *string             `json:"release_to,omitempty"`
	ReleaseBy    *string             `json:"release_by,omitempty"`
	ReturnBy     *string             `json:"return_by,omitempty"`
	IPCRCodeID   *int64              `json:"ipcr_code_id,omitempty"`
	ReportStatus enums.ReportStatus  `json:"report_status"`
	ReportedAt   *time.Time          `json:"reported_at,omitempty"`
	CreatedBy    *uint               `json:"created_by,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func FromModel(b models.Booking) BookingDTO {
	dto := BookingDTO{
		ID:           b.ID,
		ServiceID:    b.ServiceID,
		OfficeID:     b.OfficeID,
		Purpose:      b.Purpose,
		BookedAt:     b.BookedAt,
		ReturnedAt:   b.ReturnedAt,
		Status:       b.Status,
		Released:     b.Status == enums.BookingStatusReleased || b.Status == enums.BookingStatusReturned,
		Returned:     b.Status == enums.BookingStatusReturned,
		ReleasedAt:   b.ReleasedAt,
		ReleaseTo:    b.ReleaseTo,
		ReleaseBy:    b.ReleaseBy,
		ReturnBy:     b.ReturnBy,
		IPCRCodeID:   b.IPCRCodeID,
		ReportStatus: b.ReportStatus,
		ReportedAt:   b.ReportedAt,
		CreatedBy:    b.CreatedBy,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if b.Service != nil {
		dto.ServiceType = b.Service.ServiceType
	}
	if b.Office != nil {
		dto.OfficeName = b.Office.OfficeName
	}
	return dto
}

// CalendarEvent is one booking on the calendar feed.
type CalendarEvent struct {
	ID     uint                `json:"id"`
	Title  string              `json:"title"`
	Start  time.Time           `json:"start"`
	End    time.Time           `json:"end"`
	Status enums.BookingStatus `json:"status"`
}

// EventOf titles the event "{service} - {office} - {status}" and ends it at
// returned_at, or booked_at when no return date is set.
func EventOf(b models.Booking) CalendarEvent {
	service, office := "Unknown service", "Unknown office"
	if b.Service != nil {
		service = b.Service.ServiceType
	}
	if b.Office != nil {
		office = b.Office.OfficeName
	}
	end := b.BookedAt
	if b.ReturnedAt != nil {
		end = *b.ReturnedAt
	}
	return CalendarEvent{
		ID:     b.ID,
		Title:  service + " - " + office + " - " + string(b.Status),
		Start:  b.BookedAt,
		End:    end,
		Status: b.Status,
	}
}

// Result pairs the mutated booking with any accomplishment report it triggered.
type Result struct {
	Booking BookingDTO               `json:"booking"`
	Report  *accomplishments.Outcome `json:"report,omitempty"`
}
