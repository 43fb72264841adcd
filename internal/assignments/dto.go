package assignments

import (
	"time"

	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/internal/users"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// AssignmentDTO is the API shape of an assignment.
type AssignmentDTO struct {
	ID              uint               `json:"id"`
	RequestID       uint               `json:"request_id"`
	UserID          uint               `json:"user_id"`
	Assignee        *users.Summary     `json:"assignee,omitempty"`
	Status          enums.WorkStatus   `json:"status"`
	Phase           Phase              `json:"phase"`
	StartPause      bool               `json:"start_pause"`
	Time            int                `json:"time"`
	SecondsTime     int                `json:"seconds_time"`
	FormattedTime   string             `json:"formatted_time"`
	ProcessDatetime *time.Time         `json:"process_datetime,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	Remark          *string            `json:"remark,omitempty"`
	Resolution      *string            `json:"resolution,omitempty"`
	Testing         *string            `json:"testing,omitempty"`
	TestScenario    *string            `json:"test_scenario,omitempty"`
	IPCRCodeID      *int64             `json:"ipcr_code_id,omitempty"`
	ReportStatus    enums.ReportStatus `json:"report_status"`
	ReportedAt      *time.Time         `json:"reported_at,omitempty"`
	ReturnBy        *string            `json:"return_by,omitempty"`
	RequestName     string             `json:"request_name,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// FromModel maps an assignment row, including any preloaded user or request.
func FromModel(a models.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:              a.ID,
		RequestID:       a.RequestID,
		UserID:          a.UserID,
		Status:          a.Status,
		Phase:           PhaseOf(a),
		StartPause:      a.StartPause,
		Time:            a.Time,
		SecondsTime:     a.SecondsTime,
		FormattedTime:   FormatTime(a),
		ProcessDatetime: a.ProcessDatetime,
		CompletedAt:     a.CompletedAt,
		Remark:          a.Remark,
		Resolution:      a.Resolution,
		Testing:         a.Testing,
		TestScenario:    a.TestScenario,
		IPCRCodeID:      a.IPCRCodeID,
		ReportStatus:    a.ReportStatus,
		ReportedAt:      a.ReportedAt,
		ReturnBy:        a.ReturnBy,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	dto.Assignee = users.SummaryOf(a.User)
	if a.Request != nil {
		dto.RequestName = a.Request.Name
	}
	return dto
}

// Result pairs the mutated assignment with the outcome of any accomplishment report
// the mutation triggered.
type Result struct {
	Assignment AssignmentDTO            `json:"assignment"`
	Report     *accomplishments.Outcome `json:"report,omitempty"`
}
