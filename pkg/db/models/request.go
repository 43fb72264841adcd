package models

import (
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"gorm.io/gorm"
)

// Request is a service ticket. Its display status is derived from Assignments, so
// Status only holds the legacy top-level value written at creation.
type Request struct {
	ID           uint             `gorm:"primaryKey"`
	OfficeID     *uint            `gorm:"column:office_id"`
	CatsNo       *string          `gorm:"column:cats_no"`
	Name         string           `gorm:"column:name;not null"`
	Remarks      string           `gorm:"column:remarks;type:text;not null"`
	ServiceID    *uint            `gorm:"column:service_id"`
	CategoryID   *int             `gorm:"column:category_id"`
	Priority     *enums.Priority  `gorm:"column:prio"`
	P3Agreed     bool             `gorm:"column:p3_agreed;not null;default:false"`
	NoOfAffected *int             `gorm:"column:no_of_affected"`
	ControlNo    *string          `gorm:"column:control_no"`
	Details      *string          `gorm:"column:details;type:text"`
	Checked      bool             `gorm:"column:checked;not null;default:false"`
	Status       enums.WorkStatus `gorm:"column:status;not null;default:Pending"`
	CreatedBy    *uint            `gorm:"column:created_by"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt   `gorm:"column:deleted_at;index"`

	Office      *Office      `gorm:"foreignKey:OfficeID"`
	Service     *Service     `gorm:"foreignKey:ServiceID"`
	Assignments []Assignment `gorm:"foreignKey:RequestID"`
}

func (Request) TableName() string { return "formrequests" }

// MissingClassification lists the required classification columns that are still null.
func (r Request) MissingClassification() []string {
	var missing []string
	if r.ServiceID == nil {
		missing = append(missing, "service_id")
	}
	if r.Priority == nil {
		missing = append(missing, "prio")
	}
	if r.CategoryID == nil {
		missing = append(missing, "category_id")
	}
	if r.NoOfAffected == nil {
		missing = append(missing, "no_of_affected")
	}
	return missing
}
