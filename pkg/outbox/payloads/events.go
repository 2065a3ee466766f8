package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

// OrderCreatedEvent is emitted once the order row commits.
type OrderCreatedEvent struct {
	OrderID       uint64              `json:"order_id"`
	OrderCode     string              `json:"order_code"`
	CustomerID    *uint64             `json:"customer_id,omitempty"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail *string             `json:"customer_email,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	ItemCount     int                 `json:"item_count"`
	DeliveryFee   decimal.Decimal     `json:"delivery_fee"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderClaimedEvent records a staff member taking an order out for delivery.
type OrderClaimedEvent struct {
	OrderID   uint64    `json:"order_id"`
	OrderCode string    `json:"order_code"`
	StaffID   uint64    `json:"staff_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// OrderUnclaimedEvent records a claim being released back to the pool.
type OrderUnclaimedEvent struct {
	OrderID     uint64    `json:"order_id"`
	OrderCode   string    `json:"order_code"`
	StaffID     uint64    `json:"staff_id"`
	UnclaimedAt time.Time `json:"unclaimed_at"`
}

// PaymentRequestedEvent is emitted after the gateway accepts an STK push.
type PaymentRequestedEvent struct {
	OrderID           uint64          `json:"order_id"`
	OrderCode         string          `json:"order_code"`
	GatewayReference  string          `json:"gateway_reference"`
	CheckoutRequestID string          `json:"checkout_request_id,omitempty"`
	PhoneMasked       string          `json:"phone_masked"`
	Amount            decimal.Decimal `json:"amount"`
}

// PaymentUpdatedEvent carries the terminal outcome reported by the gateway.
type PaymentUpdatedEvent struct {
	OrderID          uint64              `json:"order_id"`
	OrderCode        string              `json:"order_code"`
	PaymentStatus    enums.PaymentStatus `json:"payment_status"`
	GatewayReference string              `json:"gateway_reference,omitempty"`
	ResultCode       string              `json:"result_code,omitempty"`
	Message          string              `json:"message,omitempty"`
	CustomerName     string              `json:"customer_name"`
	CustomerEmail    *string             `json:"customer_email,omitempty"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
}

// OrderPaidEvent is emitted when staff record a cash payment.
type OrderPaidEvent struct {
	OrderID       uint64              `json:"order_id"`
	OrderCode     string              `json:"order_code"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	PaidAt        time.Time           `json:"paid_at"`
}

// OrderDeliveredEvent closes the order lifecycle.
type OrderDeliveredEvent struct {
	OrderID       uint64    `json:"order_id"`
	OrderCode     string    `json:"order_code"`
	StaffID       *uint64   `json:"staff_id,omitempty"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail *string   `json:"customer_email,omitempty"`
	DeliveredAt   time.Time `json:"delivered_at"`
}
