package models

import (
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// Notification is a dismissible notice for one user.
type Notification struct {
	ID        uint                    `gorm:"primaryKey"`
	UserID    uint                    `gorm:"column:user_id;not null;index"`
	Level     enums.NotificationLevel `gorm:"column:level;not null"`
	Title     string                  `gorm:"column:title;not null"`
	Message   string                  `gorm:"column:message;type:text;not null"`
	ReadAt    *time.Time              `gorm:"column:read_at"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }
