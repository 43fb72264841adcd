package assignments

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
)

// Phase is the time-tracking position of an assignment.
type Phase string

const (
	// PhaseIdle: Pending, not started.
	PhaseIdle Phase = "idle"
	// PhaseEntering: On Process with time entry open (start_pause set).
	PhaseEntering Phase = "entering"
	// PhaseSaved: On Process with elapsed time saved.
	PhaseSaved Phase = "saved"
	// PhaseCompleted is terminal.
	PhaseCompleted Phase = "completed"
	// PhaseInvalid covers rows that break the start_pause/status invariant.
	PhaseInvalid Phase = "invalid"
)

func PhaseOf(a models.Assignment) Phase {
	switch {
	case a.Status == enums.WorkStatusPending && !a.StartPause:
		return PhaseIdle
	case a.Status == enums.WorkStatusOnProcess && a.StartPause:
		return PhaseEntering
	case a.Status == enums.WorkStatusOnProcess:
		return PhaseSaved
	case a.Status == enums.WorkStatusCompleted && !a.StartPause:
		return PhaseCompleted
	default:
		return PhaseInvalid
	}
}

// SavedDuration is the elapsed time last saved on the assignment.
func SavedDuration(a models.Assignment) time.Duration {
	return time.Duration(a.Time)*time.Minute + time.Duration(a.SecondsTime)*time.Second
}

// FormatTime renders saved time as "12 min 5 sec".
func FormatTime(a models.Assignment) string {
	return strconv.Itoa(a.Time) + " min " + strconv.Itoa(a.SecondsTime) + " sec"
}

// Change is a guarded update: it only applies while the row still matches Guard.
type Change struct {
	Guard   Guard
	Updates map[string]any
}

func boolPtr(v bool) *bool { return &v }

// PlanProceed moves an idle assignment into time entry.
func PlanProceed(a models.Assignment, now time.Time) (Change, error) {
	if phase := PhaseOf(a); phase != PhaseIdle {
		return Change{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "assignment cannot be started from %s", phase)
	}
	return Change{
		Guard: Guard{Status: enums.WorkStatusPending, StartPause: boolPtr(false)},
		Updates: map[string]any{
			"status":           enums.WorkStatusOnProcess,
			"start_pause":      true,
			"process_datetime": now,
		},
	}, nil
}

// MaxMinutes is the largest total the time column (INTEGER) can hold.
const MaxMinutes = math.MaxInt32

// ValidateTime rejects an all-zero entry and out-of-range components.
func ValidateTime(minutes, seconds int) error {
	if minutes == 0 && seconds == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "enter work time before saving")
	}
	if minutes < 0 || minutes > MaxMinutes {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "minutes must be between 0 and %d", MaxMinutes).
			WithDetails(map[string]any{"field": "time"})
	}
	if seconds < 0 || seconds > 59 {
		return pkgerrors.New(pkgerrors.CodeValidation, "seconds must be between 0 and 59").
			WithDetails(map[string]any{"field": "seconds_time"})
	}
	return nil
}

// PlanSaveTime closes time entry with the submitted total.
func PlanSaveTime(a models.Assignment, minutes, seconds int) (Change, error) {
	if err := ValidateTime(minutes, seconds); err != nil {
		return Change{}, err
	}
	if phase := PhaseOf(a); phase != PhaseEntering {
		return Change{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "time entry is not open (assignment is %s)", phase)
	}
	return Change{
		Guard: Guard{Status: enums.WorkStatusOnProcess, StartPause: boolPtr(true)},
		Updates: map[string]any{
			"time":         minutes,
			"seconds_time": seconds,
			"start_pause":  false,
		},
	}, nil
}

// WorkDetails are the findings an assignee submits to complete their work.
type WorkDetails struct {
	Remark       string
	Resolution   string
	Testing      string
	TestScenario string
	IPCRCodeID   *int64
}

func (d WorkDetails) validate() error {
	fields := map[string]string{
		"remark":        d.Remark,
		"resolution":    d.Resolution,
		"testing":       d.Testing,
		"test_scenario": d.TestScenario,
	}
	var missing []string
	for _, name := range []string{"remark", "resolution", "testing", "test_scenario"} {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "work details are incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if d.IPCRCodeID != nil && *d.IPCRCodeID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "ipcr_code_id must be positive")
	}
	return nil
}

// PlanComplete finishes a saved assignment. It is the only way to Completed.
func PlanComplete(a models.Assignment, details WorkDetails, now time.Time) (Change, error) {
	if err := details.validate(); err != nil {
		return Change{}, err
	}
	if phase := PhaseOf(a); phase != PhaseSaved {
		return Change{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "work can only be completed after time is saved (assignment is %s)", phase)
	}
	if SavedDuration(a) <= 0 {
		return Change{}, pkgerrors.New(pkgerrors.CodeStateConflict, "no work time has been saved")
	}

	updates := map[string]any{
		"status":        enums.WorkStatusCompleted,
		"remark":        strings.TrimSpace(details.Remark),
		"resolution":    strings.TrimSpace(details.Resolution),
		"testing":       strings.TrimSpace(details.Testing),
		"test_scenario": strings.TrimSpace(details.TestScenario),
		"completed_at":  now,
	}
	if details.IPCRCodeID != nil {
		for k, v := range accomplishments.LinkUpdates(a.IPCRCodeID, a.ReportStatus, *details.IPCRCodeID) {
			updates[k] = v
		}
	}
	return Change{
		Guard:   Guard{Status: enums.WorkStatusOnProcess, StartPause: boolPtr(false)},
		Updates: updates,
	}, nil
}
