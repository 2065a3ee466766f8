package notifications

import (
	"fmt"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

type template struct {
	title   string
	message string
}

var feedTemplates = map[enums.NotificationType]template{
	enums.NotificationTypeOrderPlaced: {
		title:   "Order Placed",
		message: "Your order %s has been received and is pending delivery.",
	},
	enums.NotificationTypeOrderOnTheWay: {
		title:   "Order On The Way",
		message: "Your order %s is on the way! Our delivery staff is heading to you.",
	},
	enums.NotificationTypeOrderDelivered: {
		title:   "Order Delivered",
		message: "Your order %s has been delivered. Thank you for choosing SAFARI BYTES!",
	},
	enums.NotificationTypePaymentSuccessful: {
		title:   "Payment Successful",
		message: "Payment for order %s was received.",
	},
	enums.NotificationTypePaymentFailed: {
		title:   "Payment Failed",
		message: "Payment for order %s did not go through. You can retry from your order page or pay on delivery.",
	},
}

// ForOrder builds the feed entry for order. Guest orders have no feed, so nil
// is returned when the order carries no customer id.
func ForOrder(kind enums.NotificationType, order *models.Order) *models.CustomerNotification {
	if order == nil || order.CustomerID == nil {
		return nil
	}
	tpl, ok := feedTemplates[kind]
	if !ok {
		return nil
	}
	code := order.OrderCode
	orderID := order.ID
	return &models.CustomerNotification{
		CustomerID: *order.CustomerID,
		OrderID:    &orderID,
		OrderCode:  &code,
		Type:       kind,
		Title:      tpl.title,
		Message:    fmt.Sprintf(tpl.message, code),
	}
}
