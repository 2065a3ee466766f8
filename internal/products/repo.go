package products

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/repo"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
)

// ListFilter narrows catalog reads. The zero value lists every active product.
type ListFilter struct {
	Category       string
	IncludeRemoved bool
	CombosOnly     bool
}

// Repository persists the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uint64) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	Deactivate(ctx context.Context, id uint64, at time.Time) (bool, error)
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

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// Save writes every column, so callers pass a fully loaded row.
func (r *repository) Save(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Save(product).Error
}

func (r *repository) FindByID(ctx context.Context, id uint64) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uint64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.DB(ctx).Model(&models.Product{})
	if !filter.IncludeRemoved {
		query = query.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.CombosOnly {
		query = query.Where("is_combo = ?", true)
	}
	var rows []models.Product
	err := query.Order("category ASC").Order("name ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// Deactivate hides a product from the menu. Order history keeps pointing at
// the row, so it is never hard-deleted.
func (r *repository) Deactivate(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return r.CompareAndSet(ctx, &models.Product{},
		map[string]any{"is_active": false, "is_available": false, "updated_at": at},
		"id = ? AND is_active = ?", id, true)
}
