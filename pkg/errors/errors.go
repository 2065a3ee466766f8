// Package errors carries the typed error codes every layer returns. The HTTP
// layer maps a code to its status and public message through MetadataFor.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeStateConflict   Code = "STATE_CONFLICT"
	CodeAlreadyClaimed  Code = "ALREADY_CLAIMED"
	CodeIdempotency     Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeDependency      Code = "DEPENDENCY_ERROR"
	CodeGatewayRejected Code = "GATEWAY_REJECTED"
)

// Metadata describes how a code surfaces to API clients.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

type trait uint8

const (
	retryable trait = 1 << iota
	showsDetails
)

func describe(status int, public string, traits trait) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		Retryable:      traits&retryable != 0,
		DetailsAllowed: traits&showsDetails != 0,
	}
}

// An already-claimed order answers 400, not 409: the storefront staff app
// treats it as a plain rejection.
var catalog = map[Code]Metadata{
	CodeValidation:      describe(http.StatusBadRequest, "validation failed", showsDetails),
	CodeUnauthorized:    describe(http.StatusUnauthorized, "authentication required", 0),
	CodeForbidden:       describe(http.StatusForbidden, "access denied", 0),
	CodeNotFound:        describe(http.StatusNotFound, "resource not found", 0),
	CodeConflict:        describe(http.StatusConflict, "conflict detected", 0),
	CodeStateConflict:   describe(http.StatusUnprocessableEntity, "state transition disallowed", showsDetails),
	CodeAlreadyClaimed:  describe(http.StatusBadRequest, "order already claimed", 0),
	CodeIdempotency:     describe(http.StatusConflict, "idempotency key reused", showsDetails),
	CodeRateLimit:       describe(http.StatusTooManyRequests, "rate limit exceeded", 0),
	CodeInternal:        describe(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:      describe(http.StatusServiceUnavailable, "dependency unavailable", retryable|showsDetails),
	CodeGatewayRejected: describe(http.StatusBadRequest, "payment request rejected", retryable|showsDetails),
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := catalog[code]; ok {
		return meta
	}
	return catalog[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap keeps err reachable through errors.Is and errors.As.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches client-visible context. It is dropped from responses
// for codes whose metadata disallows details.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether the outermost typed error in err carries code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
