package accomplishments

import (
	"context"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/servicedesk-backend/pkg/enums"
	"gorm.io/gorm"
)

// LogRepository stores one row per report attempt.
type LogRepository interface {
	Create(ctx context.Context, row *models.AccomplishmentReport) error
}

type logRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) Create(ctx context.Context, row *models.AccomplishmentReport) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ClaimableReport narrows an update to rows whose report may start now: linked
// or failed, or pending since before staleBefore. While pending, reported_at
// holds the claim time.
func ClaimableReport(staleBefore time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(report_status IN ? OR (report_status = ? AND (reported_at IS NULL OR reported_at < ?)))",
			[]string{string(enums.ReportStatusLinked), string(enums.ReportStatusFailed)},
			string(enums.ReportStatusPending), staleBefore)
	}
}

// ClaimUpdates marks a claimed row as in flight.
func ClaimUpdates(at time.Time) map[string]any {
	return map[string]any{"report_status": enums.ReportStatusPending, "reported_at": at}
}
