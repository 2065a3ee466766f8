package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/repo"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/pagination"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Where("order_code = ?", strings.TrimSpace(code)).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByExternalReference resolves a gateway callback. The order code is the
// external reference sent with every charge; the stored gateway reference is
// the fallback for providers that echo only their own id.
func (r *repository) FindByExternalReference(ctx context.Context, reference string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, gorm.ErrRecordNotFound
	}
	order, err := r.FindByCode(ctx, reference)
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
		return order, err
	}

	var byGateway models.Order
	if err := r.DB(ctx).Where("gateway_reference = ?", reference).First(&byGateway).Error; err != nil {
		return nil, err
	}
	return &byGateway, nil
}

func (r *repository) ListActive(ctx context.Context, limit int, cursor *pagination.Cursor, filters ActiveFilters) ([]models.Order, *pagination.Cursor, error) {
	query := r.DB(ctx).Model(&models.Order{}).Where("is_archived = ?", false)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StaffID != nil {
		query = query.Where("staff_id = ?", *filters.StaffID)
	}
	return page(query, limit, cursor)
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uint64, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error) {
	query := r.DB(ctx).Model(&models.Order{}).Where("customer_id = ?", customerID)
	return page(query, limit, cursor)
}

func page(query *gorm.DB, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error) {
	return pagination.Fetch(query, limit, cursor, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
}

// Claim assigns the order to staffID only while it is unassigned and pending.
func (r *repository) Claim(ctx context.Context, id, staffID uint64) (bool, error) {
	return r.CompareAndSet(ctx, &models.Order{}, map[string]any{
		"staff_id": staffID,
		"status":   enums.OrderStatusOutForDelivery,
	}, "id = ? AND staff_id IS NULL AND is_archived = ? AND status = ?", id, false, enums.OrderStatusPending)
}

// Unclaim releases the order only when staffID currently owns it.
func (r *repository) Unclaim(ctx context.Context, id, staffID uint64) (bool, error) {
	return r.CompareAndSet(ctx, &models.Order{}, map[string]any{
		"staff_id": nil,
		"status":   enums.OrderStatusPending,
	}, "id = ? AND staff_id = ? AND is_archived = ?", id, staffID, false)
}

func (r *repository) Deliver(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return r.CompareAndSet(ctx, &models.Order{}, map[string]any{
		"status":       enums.OrderStatusDelivered,
		"is_archived":  true,
		"delivered_at": at,
	}, "id = ? AND is_archived = ?", id, false)
}

// SetGatewayReference records a fresh charge and reopens the payment. Settled
// orders are left untouched.
func (r *repository) SetGatewayReference(ctx context.Context, id uint64, reference string, checkoutRequestID *string) (bool, error) {
	return r.CompareAndSet(ctx, &models.Order{}, map[string]any{
		"gateway_reference":   reference,
		"checkout_request_id": checkoutRequestID,
		"payment_status":      enums.PaymentStatusPending,
	}, "id = ? AND payment_status <> ?", id, enums.PaymentStatusComplete)
}

// ApplyPaymentOutcome moves a pending payment to its terminal status once.
func (r *repository) ApplyPaymentOutcome(ctx context.Context, id uint64, status enums.PaymentStatus, at time.Time) (bool, error) {
	updates := map[string]any{"payment_status": status}
	if status == enums.PaymentStatusComplete {
		updates["paid_at"] = at
	}
	return r.CompareAndSet(ctx, &models.Order{}, updates,
		"id = ? AND payment_status = ?", id, enums.PaymentStatusPending)
}

func (r *repository) MarkPaidCash(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return r.CompareAndSet(ctx, &models.Order{}, map[string]any{
		"payment_status": enums.PaymentStatusComplete,
		"payment_method": enums.PaymentMethodCash,
		"paid_at":        at,
	}, "id = ? AND payment_status <> ?", id, enums.PaymentStatusComplete)
}
