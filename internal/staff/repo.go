package staff

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VINCENT-bot354/safaribytes/internal/repo"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
)

// Repository persists the tracking state of staff members.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uint64) (*models.Staff, error)
	UpsertTrackingLink(ctx context.Context, staff *models.Staff) error
	ClearTrackingLink(ctx context.Context, id uint64, now time.Time) error
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindByID(ctx context.Context, id uint64) (*models.Staff, error) {
	var member models.Staff
	if err := r.DB(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpsertTrackingLink inserts the staff row on first use and otherwise only
// replaces the tracking columns.
func (r *repository) UpsertTrackingLink(ctx context.Context, staff *models.Staff) error {
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tracking_link", "tracking_updated_at", "updated_at"}),
	}).Create(staff).Error
}

func (r *repository) ClearTrackingLink(ctx context.Context, id uint64, now time.Time) error {
	return r.DB(ctx).
		Model(&models.Staff{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tracking_link":       nil,
			"tracking_updated_at": now,
			"updated_at":          now,
		}).Error
}
