package models

import (
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// Booking reserves a service resource for an office.
type Booking struct {
	ID           uint                `gorm:"primaryKey"`
	ServiceID    uint                `gorm:"column:service_id;not null"`
	OfficeID     uint                `gorm:"column:office_id;not null"`
	Purpose      string              `gorm:"column:purpose;type:text;not null"`
	BookedAt     time.Time           `gorm:"column:booked_at;type:date;not null"`
	ReturnedAt   *time.Time          `gorm:"column:returned_at"`
	Status       enums.BookingStatus `gorm:"column:status;not null;default:Pending"`
	ReleasedAt   *time.Time          `gorm:"column:released_at"`
	ReleaseTo    *string             `gorm:"column:release_to"`
	ReleaseBy    *string             `gorm:"column:release_by"`
	ReturnBy     *string             `gorm:"column:return_by"`
	IPCRCodeID   *int64              `gorm:"column:ipcr_code_id"`
	ReportStatus enums.ReportStatus  `gorm:"column:report_status;not null;default:unlinked"`
	ReportedAt   *time.Time          `gorm:"column:reported_at"`
	CreatedBy    *uint               `gorm:"column:created_by"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Office  *Office  `gorm:"foreignKey:OfficeID"`
	Service *Service `gorm:"foreignKey:ServiceID"`
}

func (Booking) TableName() string { return "bookings" }
