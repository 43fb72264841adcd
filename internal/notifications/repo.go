package notifications

import (
	"context"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listParams) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, userID, notificationID uint, now time.Time) (markResult, error)
	MarkAllRead(ctx context.Context, userID uint, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listParams struct {
	UserID     uint
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type markResult struct {
	Updated bool
	Found   bool
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// List pages newest first. Limit is the page size; one extra row is read to
// produce the next cursor.
func (r *repository) List(ctx context.Context, params listParams) ([]models.Notification, *pagination.Cursor, error) {
	size := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", params.UserID)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if c := params.Cursor; c != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", c.CreatedAt, c.CreatedAt, c.ID)
	}

	var rows []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(size + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) <= size {
		return rows, nil, nil
	}
	last := rows[size-1]
	return rows[:size], &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
}

func (r *repository) MarkRead(ctx context.Context, userID, notificationID uint, now time.Time) (markResult, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		UpdateColumn("read_at", now)
	if res.Error != nil {
		return markResult{}, res.Error
	}
	if res.RowsAffected > 0 {
		return markResult{Updated: true, Found: true}, nil
	}

	// Already read, or not this user's.
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Count(&count).Error; err != nil {
		return markResult{}, err
	}
	return markResult{Found: count > 0}, nil
}

func (r *repository) MarkAllRead(ctx context.Context, userID uint, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		UpdateColumn("read_at", now)
	return res.RowsAffected, res.Error
}
