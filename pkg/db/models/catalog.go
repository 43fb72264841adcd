package models

type Office struct {
	ID         uint   `gorm:"primaryKey"`
	OfficeName string `gorm:"column:officename;not null"`
}

func (Office) TableName() string { return "offices" }

// Service is a catalog entry. ClassificationCode groups services into the
// categories a request is classified under.
type Service struct {
	ID                 uint   `gorm:"primaryKey"`
	ServiceType        string `gorm:"column:service_type;not null"`
	Classification     string `gorm:"column:classification;not null"`
	ClassificationCode int    `gorm:"column:classification_code;not null"`
	Category           string `gorm:"column:category;not null"`
}

func (Service) TableName() string { return "services" }
