package payhero

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome classifies a gateway callback.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeUnknown Outcome = "unknown"
)

var (
	successStatuses = map[string]struct{}{
		"success": {}, "completed": {}, "successful": {}, "paid": {}, "complete": {},
	}
	failureStatuses = map[string]struct{}{
		"failed": {}, "cancelled": {}, "canceled": {}, "declined": {}, "rejected": {},
	}
)

// Verdict is the parsed view of a callback payload.
type Verdict struct {
	Outcome           Outcome
	ExternalReference string
	CheckoutRequestID string
	ProviderReference string
	Status            string
	ResultCode        string
	Message           string
}

// Succeeded reports whether the payer completed the charge.
func (v Verdict) Succeeded() bool {
	return v.Outcome == OutcomeSuccess
}

// VerifyCallback parses a raw callback body. It never panics and never returns
// an error: malformed payloads produce OutcomeUnknown with a diagnostic message.
func VerifyCallback(payload []byte) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = Verdict{Outcome: OutcomeUnknown, Message: fmt.Sprintf("invalid callback data: %v", r)}
		}
	}()

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return Verdict{Outcome: OutcomeUnknown, Message: "invalid callback data: empty body"}
	}

	var root map[string]any
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	if err := decoder.Decode(&root); err != nil {
		return Verdict{Outcome: OutcomeUnknown, Message: fmt.Sprintf("invalid callback data: %v", err)}
	}

	data := unwrap(root)

	verdict = Verdict{
		ExternalReference: lookupString(data, "ExternalReference", "external_reference", "order_reference"),
		CheckoutRequestID: lookupString(data, "CheckoutRequestID", "checkout_request_id"),
		ProviderReference: lookupString(data, "reference", "MpesaReceiptNumber"),
		Status:            lookupString(data, "Status", "status", "payment_status"),
		ResultCode:        lookupString(data, "ResultCode", "result_code"),
	}

	status := strings.ToLower(verdict.Status)
	switch {
	case isMember(successStatuses, status):
		verdict.Outcome = OutcomeSuccess
		verdict.Message = "Payment successful"
	case isMember(failureStatuses, status):
		verdict.Outcome = OutcomeFailure
		verdict.Message = fmt.Sprintf("Payment failed: %s", verdict.Status)
	default:
		verdict.Outcome = OutcomeUnknown
		verdict.Message = fmt.Sprintf("Unknown status: %s", verdict.Status)
	}
	return verdict
}

// unwrap descends one level into a "response" or "data" object when present.
func unwrap(root map[string]any) map[string]any {
	for _, key := range []string{"response", "data"} {
		if nested, ok := root[key].(map[string]any); ok && len(nested) > 0 {
			return nested
		}
	}
	return root
}

// lookupString returns the first non-empty value under keys. Only strings and
// numbers count; a boolean "status" wrapper flag is not a payment status.
func lookupString(values map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := values[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func isMember(set map[string]struct{}, value string) bool {
	if value == "" {
		return false
	}
	_, ok := set[value]
	return ok
}
