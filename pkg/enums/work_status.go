package enums

import "fmt"

// WorkStatus is the per-assignee progress of an assignment.
type WorkStatus string

const (
	WorkStatusPending   WorkStatus = "Pending"
	WorkStatusOnProcess WorkStatus = "On Process"
	WorkStatusCompleted WorkStatus = "Completed"
)

var validWorkStatuses = []WorkStatus{
	WorkStatusPending,
	WorkStatusOnProcess,
	WorkStatusCompleted,
}

// String implements fmt.Stringer.
func (s WorkStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WorkStatus.
func (s WorkStatus) IsValid() bool {
	for _, candidate := range validWorkStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Started reports whether work has begun, which freezes the assignee set of the parent request.
func (s WorkStatus) Started() bool {
	return s == WorkStatusOnProcess || s == WorkStatusCompleted
}

// ParseWorkStatus converts raw input into a WorkStatus.
func ParseWorkStatus(value string) (WorkStatus, error) {
	for _, candidate := range validWorkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work status %q", value)
}
