package models

import (
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// Assignment is one staff member's work record against a Request. The pair
// (RequestID, UserID) is unique.
type Assignment struct {
	ID              uint               `gorm:"primaryKey"`
	RequestID       uint               `gorm:"column:formrequest_id;not null;uniqueIndex:ux_checkrequests_request_user"`
	UserID          uint               `gorm:"column:user_id;not null;uniqueIndex:ux_checkrequests_request_user"`
	Status          enums.WorkStatus   `gorm:"column:status;not null;default:Pending"`
	StartPause      bool               `gorm:"column:start_pause;not null;default:false"`
	Time            int                `gorm:"column:time;not null;default:0"`
	SecondsTime     int                `gorm:"column:seconds_time;not null;default:0"`
	ProcessDatetime *time.Time         `gorm:"column:process_datetime"`
	CompletedAt     *time.Time         `gorm:"column:completed_at"`
	Remark          *string            `gorm:"column:remark;type:text"`
	Resolution      *string            `gorm:"column:resolution;type:text"`
	Testing         *string            `gorm:"column:testing;type:text"`
	TestScenario    *string            `gorm:"column:test_scenario;type:text"`
	IPCRCodeID      *int64             `gorm:"column:ipcr_code_id"`
	ReportStatus    enums.ReportStatus `gorm:"column:report_status;not null;default:unlinked"`
	ReportedAt      *time.Time         `gorm:"column:reported_at"`
	ReturnBy        *string            `gorm:"column:return_by"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	User    *User    `gorm:"foreignKey:UserID"`
	Request *Request `gorm:"foreignKey:RequestID"`
}

func (Assignment) TableName() string { return "checkrequests" }
