package enums

// PaymentStatus tracks settlement independently of fulfillment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending Payment"
	PaymentStatusComplete PaymentStatus = "Payment Complete"
	PaymentStatusFailed   PaymentStatus = "Payment Failed"
)

var paymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusComplete, PaymentStatusFailed}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return member(paymentStatuses, p) }

// IsSettled is true once the gateway or staff have closed the payment.
// Failed payments can be retried, so they are not settled.
func (p PaymentStatus) IsSettled() bool { return p == PaymentStatusComplete }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse(paymentStatuses, value, "payment status")
}
