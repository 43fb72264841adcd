package users

import (
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID          uint           `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	FirstName   string         `json:"firstname"`
	MiddleName  *string        `json:"middlename,omitempty"`
	LastName    string         `json:"lastname"`
	FullName    string         `json:"full_name"`
	OfficeID    *uint          `json:"office_id,omitempty"`
	Position    *string        `json:"position,omitempty"`
	Role        enums.UserRole `json:"role"`
	HasEmpCode  bool           `json:"has_emp_code"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		MiddleName:  u.MiddleName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		OfficeID:    u.OfficeID,
		Position:    u.Position,
		Role:        u.Role,
		HasEmpCode:  u.EmployeeCode() != "",
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
}

// Summary is the short form shown in assignee pickers and assignment lists.
type Summary struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	LastName string `json:"lastname"`
}

func SummaryOf(u *models.User) *Summary {
	if u == nil {
		return nil
	}
	return &Summary{ID: u.ID, FullName: u.FullName(), LastName: u.LastName}
}
