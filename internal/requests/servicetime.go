package requests

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// AssigneeServiceTime is how long one assignee took, measured from request creation to their completion.
type AssigneeServiceTime struct {
	UserID      uint      `json:"user_id"`
	UserName    string    `json:"user_name"`
	FullName    string    `json:"user_fullname"`
	Seconds     int64     `json:"seconds"`
	Formatted   string    `json:"formatted"`
	CompletedAt time.Time `json:"completed_at"`
}

// ServiceTimes summarises completed assignments. Total is the slowest assignee and
// Badge the fastest; both are nil until someone completes.
type ServiceTimes struct {
	Individual   []AssigneeServiceTime `json:"individual"`
	TotalSeconds *int64                `json:"total_seconds"`
	BadgeSeconds *int64                `json:"badge_seconds"`
	Formatted    string                `json:"formatted"`
}

// ComputeServiceTimes expects assignments with User preloaded; a missing user renders as "Unknown".
func ComputeServiceTimes(req models.Request, assignments []models.Assignment) ServiceTimes {
	out := ServiceTimes{Individual: []AssigneeServiceTime{}, Formatted: "N/A"}

	for _, a := range assignments {
		if a.Status != enums.WorkStatusCompleted {
			continue
		}
		completedAt := a.UpdatedAt
		if a.CompletedAt != nil {
			completedAt = *a.CompletedAt
		}
		if completedAt.IsZero() {
			continue
		}

		seconds := int64(completedAt.Sub(req.CreatedAt) / time.Second)
		if seconds < 0 {
			seconds = 0
		}
		entry := AssigneeServiceTime{
			UserID:      a.UserID,
			UserName:    "Unknown",
			FullName:    "Unknown",
			Seconds:     seconds,
			Formatted:   FormatSeconds(seconds),
			CompletedAt: completedAt,
		}
		if a.User != nil {
			entry.UserName = a.User.LastName
			entry.FullName = a.User.FullName()
		}
		out.Individual = append(out.Individual, entry)
	}

	if len(out.Individual) == 0 {
		return out
	}

	total, badge := out.Individual[0].Seconds, out.Individual[0].Seconds
	parts := make([]string, 0, len(out.Individual))
	for _, entry := range out.Individual {
		total = max(total, entry.Seconds)
		badge = min(badge, entry.Seconds)
		parts = append(parts, entry.UserName+": "+entry.Formatted)
	}
	out.TotalSeconds = &total
	out.BadgeSeconds = &badge
	if len(out.Individual) == 1 {
		out.Formatted = out.Individual[0].Formatted
	} else {
		out.Formatted = strings.Join(parts, "\n")
	}
	return out
}

// FormatSeconds renders 3723 as "1h 2m 3s", dropping leading zero units.
func FormatSeconds(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
