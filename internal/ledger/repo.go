package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/repo"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
)

// Repository persists capital ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.CapitalEntry) error
	FindByID(ctx context.Context, id uint64) (*models.CapitalEntry, error)
	List(ctx context.Context) ([]models.CapitalEntry, error)
	Update(ctx context.Context, entry *models.CapitalEntry) error
	Total(ctx context.Context) (decimal.Decimal, error)
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

func (r *repository) Create(ctx context.Context, entry *models.CapitalEntry) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id uint64) (*models.CapitalEntry, error) {
	var entry models.CapitalEntry
	if err := r.DB(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns every entry, newest first.
func (r *repository) List(ctx context.Context) ([]models.CapitalEntry, error) {
	var rows []models.CapitalEntry
	err := r.DB(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, entry *models.CapitalEntry) error {
	return r.DB(ctx).
		Model(&models.CapitalEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"amount":     entry.Amount,
			"purpose":    entry.Purpose,
			"is_edited":  true,
			"updated_at": entry.UpdatedAt,
		}).Error
}

// Total sums amounts in the database; rows are never summed in memory.
func (r *repository) Total(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB(ctx).Model(&models.CapitalEntry{}).Select("SUM(amount)").Row().Scan(&total)
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}
