// Package types holds the JSON envelopes every API response is wrapped in.
package types

// Envelope wraps a successful payload as {"data": ...}.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// ErrorBody is the public part of a failed request. RequestID matches the
// X-Request-Id header so support can find the server log line.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
