package bookings

import (
	"context"
	"time"

	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository persists bookings.
type Repository interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	ListRange(ctx context.Context, filter RangeFilter) ([]models.Booking, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Transition(ctx context.Context, id uint, from enums.BookingStatus, updates map[string]any) (int64, error)
	ClaimReport(ctx context.Context, id uint, at, staleBefore time.Time) (bool, error)
	UpdateReport(ctx context.Context, id uint, updates map[string]any) error
}

// RangeFilter selects bookings whose [booked_at, returned_at] span overlaps [From, To].
type RangeFilter struct {
	From   *time.Time
	To     *time.Time
	Status *enums.BookingStatus
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bookings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).
		Preload("Office").
		Preload("Service").
		Where("id = ?", id).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListRange(ctx context.Context, filter RangeFilter) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).Preload("Office").Preload("Service")
	if filter.To != nil {
		query = query.Where("booked_at <= ?", *filter.To)
	}
	if filter.From != nil {
		query = query.Where("COALESCE(returned_at, booked_at) >= ?", *filter.From)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var rows []models.Booking
	err := query.Order("booked_at ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) Transition(ctx context.Context, id uint, from enums.BookingStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// UpdateReport records report bookkeeping without bumping updated_at.
func (r *repository) UpdateReport(ctx context.Context, id uint, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

func (r *repository) ClaimReport(ctx context.Context, id uint, at, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Scopes(accomplishments.ClaimableReport(staleBefore)).
		UpdateColumns(accomplishments.ClaimUpdates(at))
	return res.RowsAffected == 1, res.Error
}
