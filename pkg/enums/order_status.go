package enums

// OrderStatus is the fulfillment state of an order. The values are the
// customer-facing labels.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

var orderStatuses = []OrderStatus{OrderStatusPending, OrderStatusOutForDelivery, OrderStatusDelivered}

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) IsValid() bool { return member(orderStatuses, s) }

// IsTerminal reports whether no further fulfillment transitions are allowed.
func (s OrderStatus) IsTerminal() bool { return s == OrderStatusDelivered }

func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse(orderStatuses, value, "order status")
}
