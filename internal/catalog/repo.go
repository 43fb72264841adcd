package catalog

import (
	"context"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads offices and services.
type Repository interface {
	ListOffices(ctx context.Context) ([]models.Office, error)
	ListServices(ctx context.Context, categoryCode *int) ([]models.Service, error)
	FindService(ctx context.Context, id uint) (*models.Service, error)
	FindOffice(ctx context.Context, id uint) (*models.Office, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListOffices(ctx context.Context) ([]models.Office, error) {
	var rows []models.Office
	err := r.db.WithContext(ctx).Order("officename ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) ListServices(ctx context.Context, categoryCode *int) ([]models.Service, error) {
	query := r.db.WithContext(ctx).Model(&models.Service{})
	if categoryCode != nil {
		query = query.Where("classification_code = ?", *categoryCode)
	}
	var rows []models.Service
	err := query.Order("classification_code ASC, service_type ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindService(ctx context.Context, id uint) (*models.Service, error) {
	var s models.Service
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindOffice(ctx context.Context, id uint) (*models.Office, error) {
	var o models.Office
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}
