package enums

import "fmt"

// BookingStatus tracks a resource booking from request through release and return.
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "Pending"
	BookingStatusReleased BookingStatus = "Released"
	BookingStatusReturned BookingStatus = "Returned"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusReleased,
	BookingStatusReturned,
}

func (s BookingStatus) String() string {
	return string(s)
}

func (s BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}
