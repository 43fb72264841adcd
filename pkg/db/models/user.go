package models

import (
	"strings"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
)

// User is a staff account. Cats holds the employee code the accomplishment service knows them by.
type User struct {
	ID           uint           `gorm:"primaryKey"`
	OfficeID     *uint          `gorm:"column:office_id"`
	FirstName    string         `gorm:"column:firstname;not null"`
	MiddleName   *string        `gorm:"column:middlename"`
	LastName     string         `gorm:"column:lastname;not null"`
	Username     string         `gorm:"column:username;not null;uniqueIndex"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Cats         *string        `gorm:"column:cats"`
	Position     *string        `gorm:"column:position"`
	Role         enums.UserRole `gorm:"column:role;not null;default:staff"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// FullName renders "First M. Last".
func (u User) FullName() string {
	parts := []string{strings.TrimSpace(u.FirstName)}
	if u.MiddleName != nil && strings.TrimSpace(*u.MiddleName) != "" {
		parts = append(parts, string([]rune(strings.TrimSpace(*u.MiddleName))[0])+".")
	}
	parts = append(parts, strings.TrimSpace(u.LastName))
	return strings.Join(parts, " ")
}

// EmployeeCode returns the trimmed employee code, or "" when unset.
func (u User) EmployeeCode() string {
	if u.Cats == nil {
		return ""
	}
	return strings.TrimSpace(*u.Cats)
}
