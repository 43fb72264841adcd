package users

import (
	"context"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActive returns active staff ordered by last name, the options offered when
// assigning a request.
func (r *Repository) ListActive(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("lastname ASC, firstname ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// ActiveIDs returns which of ids belong to active users.
func (r *Repository) ActiveIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ? AND is_active = ?", ids, true).
		Pluck("id", &found).Error
	return found, err
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
