package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/pagination"
)

// Repository defines persistence operations for the orders table. Every
// mutation is a compare-and-set: the bool result reports whether the guarded
// row was updated.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uint64) (*models.Order, error)
	FindByCode(ctx context.Context, code string) (*models.Order, error)
	FindByExternalReference(ctx context.Context, reference string) (*models.Order, error)
	ListActive(ctx context.Context, limit int, cursor *pagination.Cursor, filters ActiveFilters) ([]models.Order, *pagination.Cursor, error)
	ListByCustomer(ctx context.Context, customerID uint64, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error)
	Claim(ctx context.Context, id, staffID uint64) (bool, error)
	Unclaim(ctx context.Context, id, staffID uint64) (bool, error)
	Deliver(ctx context.Context, id uint64, at time.Time) (bool, error)
	SetGatewayReference(ctx context.Context, id uint64, reference string, checkoutRequestID *string) (bool, error)
	ApplyPaymentOutcome(ctx context.Context, id uint64, status enums.PaymentStatus, at time.Time) (bool, error)
	MarkPaidCash(ctx context.Context, id uint64, at time.Time) (bool, error)
}
