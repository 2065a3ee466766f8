package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

// OrderItem is a single cart line captured at checkout.
type OrderItem struct {
	ProductID uint64          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is the central customer order. Fulfillment (Status, StaffID, IsArchived)
// and settlement (PaymentStatus) move independently.
type Order struct {
	ID         uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderCode  string  `gorm:"column:order_code;type:varchar(16);not null;uniqueIndex:ux_orders_order_code"`
	CustomerID *uint64 `gorm:"column:customer_id"`

	CustomerName  string  `gorm:"column:customer_name;type:varchar(255);not null"`
	CustomerPhone string  `gorm:"column:customer_phone;type:varchar(20);not null"`
	CustomerEmail *string `gorm:"column:customer_email;type:varchar(255)"`

	Items          []OrderItem     `gorm:"column:items;type:jsonb;serializer:json;not null"`
	ProductTotal   decimal.Decimal `gorm:"column:product_total;type:numeric(12,2);not null"`
	DeliveryFee    decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	ConvenienceFee decimal.Decimal `gorm:"column:convenience_fee;type:numeric(12,2);not null;default:0"`
	TransactionFee decimal.Decimal `gorm:"column:transaction_fee;type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`

	DeliveryAddress   string   `gorm:"column:delivery_address;type:text;not null"`
	DeliveryLatitude  *float64 `gorm:"column:delivery_latitude"`
	DeliveryLongitude *float64 `gorm:"column:delivery_longitude"`
	LocationMethod    *string  `gorm:"column:location_method;type:varchar(20)"`

	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:varchar(16);not null"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:varchar(32);not null;default:'Pending Payment'"`
	GatewayReference  *string             `gorm:"column:gateway_reference;type:varchar(255)"`
	CheckoutRequestID *string             `gorm:"column:checkout_request_id;type:varchar(255)"`
	PaidAt            *time.Time          `gorm:"column:paid_at"`

	StaffID     *uint64           `gorm:"column:staff_id"`
	Status      enums.OrderStatus `gorm:"column:status;type:varchar(32);not null;default:'Pending'"`
	IsArchived  bool              `gorm:"column:is_archived;not null;default:false"`
	DeliveredAt *time.Time        `gorm:"column:delivered_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ComputedTotal returns the sum the stored total must equal.
func (o Order) ComputedTotal() decimal.Decimal {
	return o.ProductTotal.Add(o.DeliveryFee).Add(o.ConvenienceFee).Add(o.TransactionFee)
}
