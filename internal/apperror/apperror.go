// Package apperror defines the typed failure taxonomy of the store core and
// the canonical error envelope returned to HTTP clients. Every failure a
// service can produce is one of these types; nothing is swallowed internally
// and internal details (SQL errors, stack traces) never reach clients.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// ─── Typed failures ──────────────────────────────────────────────────────────

// StorageError wraps an underlying read/write failure. Fatal to the in-flight
// operation; never retried inside the core.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// MigrationError means the store could not be brought to the current schema
// version. Fatal at startup — the store must not be used.
type MigrationError struct {
	From int
	To   int
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("schema migration v%d → v%d: %v", e.From, e.To, e.Err)
}
func (e *MigrationError) Unwrap() error { return e.Err }

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.Entity, e.ID) }

// ConflictError reports an operation that would violate an invariant, such as
// starting a shift while one is already active.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string { return e.Detail }

// InsufficientStockError carries the offending product and the deficit so the
// caller can name it to the user.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

// Deficit is how many units short the order is.
func (e *InsufficientStockError) Deficit() int { return e.Requested - e.Available }

// InvalidArgumentError reports a caller contract violation, such as a
// non-positive restock quantity.
type InvalidArgumentError struct {
	Detail string
}

func (e *InvalidArgumentError) Error() string { return e.Detail }

// InvalidPaymentError reports a payment that cannot cover the order total.
type InvalidPaymentError struct {
	Detail string
}

func (e *InvalidPaymentError) Error() string { return e.Detail }

// ─── HTTP mapping ────────────────────────────────────────────────────────────

// HTTPStatus maps a typed failure to the status code the handler layer
// responds with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	var (
		notFound *NotFoundError
		conflict *ConflictError
		stock    *InsufficientStockError
		badArg   *InvalidArgumentError
		badPay   *InvalidPaymentError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &stock):
		return http.StatusConflict
	case errors.As(err, &badArg), errors.As(err, &badPay):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
