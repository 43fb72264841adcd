package requests

import (
	"time"

	"github.com/angelmondragon/servicedesk-backend/internal/assignments"
	"github.com/angelmondragon/servicedesk-backend/internal/catalog"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// RequestDTO is the API shape of a request with its derived status.
type RequestDTO struct {
	ID           uint                        `json:"id"`
	OfficeID     *uint                       `json:"office_id,omitempty"`
	OfficeName   string                      `json:"office_name,omitempty"`
	CatsNo       *string                     `json:"cats_no,omitempty"`
	Name         string                      `json:"name"`
	Remarks      string                      `json:"remarks"`
	CategoryID   *int                        `json:"category_id,omitempty"`
	CategoryName string                      `json:"category_name,omitempty"`
	ServiceID    *uint                       `json:"service_id,omitempty"`
	ServiceType  string                      `json:"service_type,omitempty"`
	Priority     *enums.Priority             `json:"prio,omitempty"`
	P3Agreed     bool                        `json:"p3_agreed"`
	NoOfAffected *int                        `json:"no_of_affected,omitempty"`
	ControlNo    *string                     `json:"control_no,omitempty"`
	Details      *string                     `json:"details,omitempty"`
	Checked      bool                        `json:"checked"`
	Status       Status                      `json:"status"`
	Assignments  []assignments.AssignmentDTO `json:"assignments"`
	CreatedBy    *uint                       `json:"created_by,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func toDTO(req models.Request, status Status) RequestDTO {
	dto := RequestDTO{
		ID:           req.ID,
		OfficeID:     req.OfficeID,
		CatsNo:       req.CatsNo,
		Name:         req.Name,
		Remarks:      req.Remarks,
		CategoryID:   req.CategoryID,
		ServiceID:    req.ServiceID,
		Priority:     req.Priority,
		P3Agreed:     req.P3Agreed,
		NoOfAffected: req.NoOfAffected,
		ControlNo:    req.ControlNo,
		Details:      req.Details,
		Checked:      req.Checked,
		Status:       status,
		Assignments:  make([]assignments.AssignmentDTO, 0, len(req.Assignments)),
		CreatedBy:    req.CreatedBy,
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
	if req.Office != nil {
		dto.OfficeName = req.Office.OfficeName
	}
	if req.Service != nil {
		dto.ServiceType = req.Service.ServiceType
	}
	if req.CategoryID != nil {
		dto.CategoryName, _ = catalog.CategoryName(*req.CategoryID)
	}
	for _, a := range req.Assignments {
		dto.Assignments = append(dto.Assignments, assignments.FromModel(a))
	}
	return dto
}

// FromModel maps a request whose Assignments are preloaded.
func FromModel(req models.Request) RequestDTO {
	return toDTO(req, Evaluate(req, req.Assignments))
}

// AssignResult summarises a reassignment.
type AssignResult struct {
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	UserIDs []uint `json:"user_ids"`
}
