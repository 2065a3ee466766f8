package enums

// NotificationType classifies customer feed entries.
type NotificationType string

const (
	NotificationTypeOrderPlaced       NotificationType = "order_placed"
	NotificationTypeOrderOnTheWay     NotificationType = "order_on_the_way"
	NotificationTypeOrderDelivered    NotificationType = "order_delivered"
	NotificationTypePaymentSuccessful NotificationType = "payment_successful"
	NotificationTypePaymentFailed     NotificationType = "payment_failed"
)

var notificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderOnTheWay,
	NotificationTypeOrderDelivered,
	NotificationTypePaymentSuccessful,
	NotificationTypePaymentFailed,
}

func (n NotificationType) IsValid() bool { return member(notificationTypes, n) }

func ParseNotificationType(value string) (NotificationType, error) {
	return parse(notificationTypes, value, "notification type")
}
