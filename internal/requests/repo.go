package requests

import (
	"context"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists requests (formrequests). Reads exclude soft-deleted rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, req *models.Request) error
	FindByID(ctx context.Context, id uint) (*models.Request, error)
	ListAll(ctx context.Context) ([]models.Request, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	SoftDelete(ctx context.Context, id uint) (int64, error)
	Restore(ctx context.Context, id uint) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a requests repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, req *models.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Office").
		Preload("Service").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("checkrequests.id ASC")
		}).
		Preload("Assignments.User")
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Request, error) {
	var req models.Request
	if err := r.withRelations(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListAll loads every live request with its assignments. Ordering by aggregate
// status happens in memory because the status is derived, not stored.
func (r *repository) ListAll(ctx context.Context) ([]models.Request, error) {
	var rows []models.Request
	err := r.withRelations(ctx).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Request{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Request{})
	return res.RowsAffected, res.Error
}

func (r *repository) Restore(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Request{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	return res.RowsAffected, res.Error
}
