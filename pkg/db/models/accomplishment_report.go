package models

import (
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// AccomplishmentReport logs one attempt to submit work to the accomplishment service.
type AccomplishmentReport struct {
	ID          uint               `gorm:"primaryKey"`
	TargetKind  enums.ReportTarget `gorm:"column:target_kind;not null"`
	TargetID    uint               `gorm:"column:target_id;not null"`
	ActorUserID uint               `gorm:"column:actor_user_id;not null"`
	IPCRCodeID  int64              `gorm:"column:ipcr_code_id;not null"`
	EmpCode     *string            `gorm:"column:emp_code"`
	Outcome     enums.ReportStatus `gorm:"column:outcome;not null"`
	HTTPStatus  *int               `gorm:"column:http_status"`
	Error       *string            `gorm:"column:error;type:text"`
	Payload     *string            `gorm:"column:payload;type:text"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (AccomplishmentReport) TableName() string { return "accomplishment_reports" }
