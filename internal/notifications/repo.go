package notifications

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/repo"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/pagination"
)

// Repository exposes persistence helpers for the customer notification feed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.CustomerNotification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.CustomerNotification, *pagination.Cursor, error)
	CountUnread(ctx context.Context, customerID uint64) (int64, error)
	MarkRead(ctx context.Context, customerID, notificationID uint64, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, customerID uint64, now time.Time) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	repo.Base
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

type listNotificationsParams struct {
	CustomerID uint64
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{Base: repo.NewBase(tx)}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.CustomerNotification) error {
	return r.DB(ctx).Create(notification).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.CustomerNotification, *pagination.Cursor, error) {
	query := r.DB(ctx).Model(&models.CustomerNotification{}).Where("customer_id = ?", params.CustomerID)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	return pagination.Fetch(query, params.Limit, params.Cursor, func(n models.CustomerNotification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
}

func (r *repositoryImpl) CountUnread(ctx context.Context, customerID uint64) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.CustomerNotification{}).
		Where("customer_id = ? AND read_at IS NULL", customerID).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) MarkRead(ctx context.Context, customerID, notificationID uint64, now time.Time) (notificationMarkResult, error) {
	result := r.DB(ctx).
		Model(&models.CustomerNotification{}).
		Where("id = ? AND customer_id = ? AND read_at IS NULL", notificationID, customerID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if mark.Updated {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.DB(ctx).
		Model(&models.CustomerNotification{}).
		Where("id = ? AND customer_id = ?", notificationID, customerID).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, customerID uint64, now time.Time) (int64, error) {
	result := r.DB(ctx).
		Model(&models.CustomerNotification{}).
		Where("customer_id = ? AND read_at IS NULL", customerID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteReadBefore removes read entries whose read_at is older than cutoff.
// Unread entries are never deleted.
func (r *repositoryImpl) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.CustomerNotification{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
