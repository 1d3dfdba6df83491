package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindStock
	KindPaymentGateway
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindStock:
		return "stock"
	case KindPaymentGateway:
		return "payment_gateway"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus returns the status code the envelope is written with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindStock, KindPaymentGateway:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the application error carried from services up to the HTTP layer.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Stock(msg string) *Error {
	return &Error{Kind: KindStock, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// PaymentGateway wraps a processor rejection; msg is shown to the customer.
func PaymentGateway(msg string, cause error) *Error {
	return &Error{Kind: KindPaymentGateway, Message: msg, Err: cause}
}

// Internal wraps an unexpected failure. The message never reaches the client.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// KindOf reports the kind of err, KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Field is shorthand for building a FieldError.
func Field(name, msg string) FieldError {
	return FieldError{Field: name, Message: msg}
}
