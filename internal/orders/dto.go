package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

// Actor identifies who is performing an operation.
type Actor struct {
	ID   uint64
	Role enums.ActorRole
}

func (a Actor) idPtr() *uint64 {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

// CreateOrderInput is the checkout payload after request decoding.
type CreateOrderInput struct {
	CustomerID     *uint64
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  *string
	Items          []models.OrderItem
	ProductTotal   decimal.Decimal
	DeliveryFee    decimal.Decimal
	ConvenienceFee decimal.Decimal
	TransactionFee decimal.Decimal
	TotalAmount    decimal.Decimal
	PaymentMethod  enums.PaymentMethod
	Address        string
	Latitude       *float64
	Longitude      *float64
	LocationMethod *string
}

// CreateResult is returned to the storefront after checkout.
type CreateResult struct {
	Order            *models.Order
	PaymentInitiated bool
	PaymentError     string
}

// RequestPaymentInput re-issues an STK push, optionally to a different phone.
type RequestPaymentInput struct {
	OrderID uint64
	Phone   string
	Actor   Actor
}

// ActiveFilters narrow the staff queue.
type ActiveFilters struct {
	Status  *enums.OrderStatus
	StaffID *uint64
}

// OrderView is the API representation of an order.
type OrderView struct {
	ID                uint64              `json:"id"`
	OrderCode         string              `json:"order_code"`
	CustomerID        *uint64             `json:"customer_id,omitempty"`
	CustomerName      string              `json:"customer_name"`
	CustomerPhone     string              `json:"customer_phone"`
	CustomerEmail     *string             `json:"customer_email,omitempty"`
	Items             []models.OrderItem  `json:"items"`
	ProductTotal      decimal.Decimal     `json:"product_total"`
	DeliveryFee       decimal.Decimal     `json:"delivery_fee"`
	ConvenienceFee    decimal.Decimal     `json:"convenience_fee"`
	TransactionFee    decimal.Decimal     `json:"transaction_fee"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	DeliveryAddress   string              `json:"delivery_address"`
	DeliveryLatitude  *float64            `json:"delivery_latitude,omitempty"`
	DeliveryLongitude *float64            `json:"delivery_longitude,omitempty"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	PaymentStatus     enums.PaymentStatus `json:"payment_status"`
	GatewayReference  *string             `json:"gateway_reference,omitempty"`
	StaffID           *uint64             `json:"staff_id,omitempty"`
	Status            enums.OrderStatus   `json:"status"`
	IsArchived        bool                `json:"is_archived"`
	DeliveredAt       *time.Time          `json:"delivered_at,omitempty"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// OrderList wraps a page of orders plus the cursor for the next page.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// NewOrderView maps the stored order to its API shape.
func NewOrderView(order *models.Order) OrderView {
	items := order.Items
	if items == nil {
		items = []models.OrderItem{}
	}
	return OrderView{
		ID:                order.ID,
		OrderCode:         order.OrderCode,
		CustomerID:        order.CustomerID,
		CustomerName:      order.CustomerName,
		CustomerPhone:     order.CustomerPhone,
		CustomerEmail:     order.CustomerEmail,
		Items:             items,
		ProductTotal:      order.ProductTotal,
		DeliveryFee:       order.DeliveryFee,
		ConvenienceFee:    order.ConvenienceFee,
		TransactionFee:    order.TransactionFee,
		TotalAmount:       order.TotalAmount,
		DeliveryAddress:   order.DeliveryAddress,
		DeliveryLatitude:  order.DeliveryLatitude,
		DeliveryLongitude: order.DeliveryLongitude,
		PaymentMethod:     order.PaymentMethod,
		PaymentStatus:     order.PaymentStatus,
		GatewayReference:  order.GatewayReference,
		StaffID:           order.StaffID,
		Status:            order.Status,
		IsArchived:        order.IsArchived,
		DeliveredAt:       order.DeliveredAt,
		PaidAt:            order.PaidAt,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}
