package orders

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/notifications"
	"github.com/VINCENT-bot354/safaribytes/pkg/db"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/payloads"
	"github.com/VINCENT-bot354/safaribytes/pkg/phone"
)

const (
	maxCodeAttempts     = 5
	orderCodeConstraint = "ux_orders_order_code"
)

// Create persists a new order with its feed entry, outbox event and audit
// row in one transaction. Prepay orders then get an STK push; a failed push
// leaves the order in place with payment pending.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*CreateResult, error) {
	normalizedPhone, err := validateCreate(&input)
	if err != nil {
		return nil, err
	}
	if s.catalog != nil {
		if err := s.catalog.CheckOrderable(ctx, productIDs(input.Items)); err != nil {
			return nil, err
		}
	}

	actor := Actor{Role: enums.ActorRoleCustomer}
	if input.CustomerID != nil {
		actor.ID = *input.CustomerID
	}

	var order *models.Order
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order code")
		}
		candidate := buildOrder(input, normalizedPhone, code)

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.persistNewOrder(ctx, tx, candidate, actor)
		})
		if err == nil {
			order = candidate
			break
		}
		if isCodeCollision(err) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"order_code": code, "attempt": attempt}), "orders.create.code_collision")
			continue
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique order code")
	}

	logCtx := s.orderContext(ctx, order)
	s.logg.Info(logCtx, "orders.create.success")
	s.metrics.IncCreated(string(order.PaymentMethod))
	s.broadcaster.Broadcast(ctx, notifications.UpdateFromOrder(notifications.UpdateOrderCreated, order))

	result := &CreateResult{Order: order}
	if order.PaymentMethod == enums.PaymentMethodPrepay {
		if _, err := s.initiateCharge(ctx, order, order.CustomerPhone, actor); err != nil {
			s.logg.Error(logCtx, "orders.create.charge_failed", err)
			result.PaymentError = publicMessage(err)
		} else {
			result.PaymentInitiated = true
		}
	}
	return result, nil
}

func (s *service) persistNewOrder(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error {
	if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
		return err
	}
	if err := s.notify(ctx, tx, enums.NotificationTypeOrderPlaced, order); err != nil {
		return err
	}
	if err := s.emit(ctx, tx, enums.EventOrderCreated, order, actor, payloads.OrderCreatedEvent{
		OrderID:       order.ID,
		OrderCode:     order.OrderCode,
		CustomerID:    order.CustomerID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		ItemCount:     len(order.Items),
		DeliveryFee:   order.DeliveryFee,
		TotalAmount:   order.TotalAmount,
		CreatedAt:     order.CreatedAt,
	}); err != nil {
		return err
	}
	return s.record(ctx, tx, enums.AuditActionOrderCreated, order, actor, map[string]any{
		"payment_method": order.PaymentMethod,
		"total_amount":   order.TotalAmount.StringFixed(2),
	})
}

func productIDs(items []models.OrderItem) []uint64 {
	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func validateCreate(input *CreateOrderInput) (string, error) {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.Address = strings.TrimSpace(input.Address)
	if input.CustomerName == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	normalized, err := phone.Normalize(input.CustomerPhone)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number format")
	}
	if input.Address == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if len(input.Items) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid order item").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
	}
	if !input.PaymentMethod.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment method must be cash or prepay")
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be provided together")
	}

	amounts := []decimal.Decimal{input.ProductTotal, input.DeliveryFee, input.ConvenienceFee, input.TransactionFee}
	sum := decimal.Zero
	for _, amount := range amounts {
		if amount.IsNegative() {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "amounts cannot be negative")
		}
		sum = sum.Add(amount)
	}
	if !input.TotalAmount.IsPositive() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "total amount must be positive")
	}
	if !input.TotalAmount.Equal(sum) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "total amount does not match the sum of its parts").
			WithDetails(map[string]any{
				"total_amount":    input.TotalAmount.StringFixed(2),
				"expected_amount": sum.StringFixed(2),
			})
	}

	if input.CustomerEmail != nil {
		email := strings.TrimSpace(*input.CustomerEmail)
		if email == "" {
			input.CustomerEmail = nil
		} else {
			input.CustomerEmail = &email
		}
	}
	return normalized, nil
}

func buildOrder(input CreateOrderInput, normalizedPhone, code string) *models.Order {
	return &models.Order{
		OrderCode:         code,
		CustomerID:        input.CustomerID,
		CustomerName:      input.CustomerName,
		CustomerPhone:     normalizedPhone,
		CustomerEmail:     input.CustomerEmail,
		Items:             input.Items,
		ProductTotal:      input.ProductTotal,
		DeliveryFee:       input.DeliveryFee,
		ConvenienceFee:    input.ConvenienceFee,
		TransactionFee:    input.TransactionFee,
		TotalAmount:       input.TotalAmount,
		DeliveryAddress:   input.Address,
		DeliveryLatitude:  input.Latitude,
		DeliveryLongitude: input.Longitude,
		LocationMethod:    input.LocationMethod,
		PaymentMethod:     input.PaymentMethod,
		PaymentStatus:     enums.PaymentStatusPending,
		Status:            enums.OrderStatusPending,
	}
}

// isCodeCollision matches the named index on Postgres and the column name in
// SQLite's message.
func isCodeCollision(err error) bool {
	return db.IsUniqueViolation(err, orderCodeConstraint) || db.IsUniqueViolation(err, "orders.order_code")
}

func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
