package enums

import "fmt"

// ReportStatus records how far an accomplishment report got for a linked output code.
type ReportStatus string

const (
	ReportStatusUnlinked  ReportStatus = "unlinked"
	ReportStatusLinked    ReportStatus = "linked"
	ReportStatusPending   ReportStatus = "report_pending"
	ReportStatusFailed    ReportStatus = "report_failed"
	ReportStatusConfirmed ReportStatus = "report_confirmed"
)

var validReportStatuses = []ReportStatus{
	ReportStatusUnlinked,
	ReportStatusLinked,
	ReportStatusPending,
	ReportStatusFailed,
	ReportStatusConfirmed,
}

func (s ReportStatus) String() string {
	return string(s)
}

func (s ReportStatus) IsValid() bool {
	for _, candidate := range validReportStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReportStatus converts raw input into a ReportStatus.
func ParseReportStatus(value string) (ReportStatus, error) {
	for _, candidate := range validReportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report status %q", value)
}

// ReportTarget names the kind of record an accomplishment report was filed for.
type ReportTarget string

const (
	ReportTargetAssignment ReportTarget = "assignment"
	ReportTargetBooking    ReportTarget = "booking"
)
