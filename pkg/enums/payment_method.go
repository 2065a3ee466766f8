package enums

import "strings"

// PaymentMethod is how the customer intends to settle: cash at handoff or
// an M-Pesa STK push before dispatch.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodPrepay PaymentMethod = "prepay"
)

var paymentMethods = []PaymentMethod{PaymentMethodCash, PaymentMethodPrepay}

// older storefront builds send the wallet name instead of "prepay"
var paymentMethodAliases = map[string]PaymentMethod{
	"mpesa":  PaymentMethodPrepay,
	"m-pesa": PaymentMethodPrepay,
}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return member(paymentMethods, p) }

// ParsePaymentMethod is case-insensitive and accepts the wallet aliases.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := paymentMethodAliases[normalized]; ok {
		return alias, nil
	}
	if method := PaymentMethod(normalized); method.IsValid() {
		return method, nil
	}
	return "", parseError("payment method", value)
}
