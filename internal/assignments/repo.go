package assignments

import (
	"context"
	"time"

	"github.com/angelmondragon/servicedesk-backend/internal/accomplishments"
	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists assignments (checkrequests).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uint) (*models.Assignment, error)
	ListByRequest(ctx context.Context, requestID uint) ([]models.Assignment, error)
	ListForUser(ctx context.Context, userID uint, includeCompleted bool) ([]models.Assignment, error)
	CreateBatch(ctx context.Context, rows []models.Assignment) error
	DeletePending(ctx context.Context, requestID uint, userIDs []uint) (int64, error)
	LockRequest(ctx context.Context, requestID uint) error
	Transition(ctx context.Context, id uint, guard Guard, updates map[string]any) (int64, error)
	SetReturnByOnCompleted(ctx context.Context, requestID uint, returnBy string) (int64, error)
	ClaimReport(ctx context.Context, id uint, at, staleBefore time.Time) (bool, error)
	UpdateReport(ctx context.Context, id uint, updates map[string]any) error
}

// Guard is the state an assignment row must still be in for a Transition to apply.
type Guard struct {
	Status     enums.WorkStatus
	StartPause *bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Assignment, error) {
	var a models.Assignment
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListByRequest(ctx context.Context, requestID uint) ([]models.Assignment, error) {
	var rows []models.Assignment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("formrequest_id = ?", requestID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListForUser returns the caller's assignments on requests that are not soft deleted.
func (r *repository) ListForUser(ctx context.Context, userID uint, includeCompleted bool) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).
		Preload("Request").
		Joins("JOIN formrequests ON formrequests.id = checkrequests.formrequest_id AND formrequests.deleted_at IS NULL").
		Where("checkrequests.user_id = ?", userID)
	if !includeCompleted {
		query = query.Where("checkrequests.status <> ?", enums.WorkStatusCompleted)
	}

	var rows []models.Assignment
	err := query.Order("checkrequests.created_at DESC, checkrequests.id DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) CreateBatch(ctx context.Context, rows []models.Assignment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// DeletePending removes the given users' assignments only while they are still Pending.
func (r *repository) DeletePending(ctx context.Context, requestID uint, userIDs []uint) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("formrequest_id = ? AND user_id IN ? AND status = ?", requestID, userIDs, enums.WorkStatusPending).
		Delete(&models.Assignment{})
	return res.RowsAffected, res.Error
}

// LockRequest takes a row lock on the parent request so assignee changes and work
// starts on the same request serialise.
func (r *repository) LockRequest(ctx context.Context, requestID uint) error {
	var req models.Request
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").
		Where("id = ?", requestID).
		First(&req).Error
}

func (r *repository) Transition(ctx context.Context, id uint, guard Guard, updates map[string]any) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, guard.Status)
	if guard.StartPause != nil {
		query = query.Where("start_pause = ?", *guard.StartPause)
	}
	res := query.Updates(updates)
	return res.RowsAffected, res.Error
}

// SetReturnByOnCompleted writes return_by on every completed assignment of a request
// without bumping updated_at.
func (r *repository) SetReturnByOnCompleted(ctx context.Context, requestID uint, returnBy string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("formrequest_id = ? AND status = ?", requestID, enums.WorkStatusCompleted).
		UpdateColumn("return_by", returnBy)
	return res.RowsAffected, res.Error
}

// UpdateReport records report bookkeeping; like return_by it leaves updated_at alone.
func (r *repository) UpdateReport(ctx context.Context, id uint, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

func (r *repository) ClaimReport(ctx context.Context, id uint, at, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Scopes(accomplishments.ClaimableReport(staleBefore)).
		UpdateColumns(accomplishments.ClaimUpdates(at))
	return res.RowsAffected == 1, res.Error
}
