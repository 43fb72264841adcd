package enums

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the request urgency assigned at classification.
type Priority string

const (
	PriorityP1 Priority = "p1"
	PriorityP2 Priority = "p2"
	PriorityP3 Priority = "p3"
)

var validPriorities = []Priority{PriorityP1, PriorityP2, PriorityP3}

func (p Priority) String() string {
	return string(p)
}

func (p Priority) IsValid() bool {
	for _, candidate := range validPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Target is the resolution window promised for the priority. P3 has no fixed
// window and is agreed with the requester instead.
func (p Priority) Target() (time.Duration, bool) {
	switch p {
	case PriorityP1:
		return 4 * time.Hour, true
	case PriorityP2:
		return 8 * time.Hour, true
	default:
		return 0, false
	}
}

// ParsePriority accepts p1..p3 case-insensitively.
func ParsePriority(value string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(value)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority %q", value)
	}
	return p, nil
}
