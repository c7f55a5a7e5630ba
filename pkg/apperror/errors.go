package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP status code
type Kind string

const (
	KindBadRequest             Kind = "bad_request"
	KindNotFound               Kind = "not_found"
	KindUnauthorized           Kind = "unauthorized"
	KindForbidden              Kind = "forbidden"
	KindInternal               Kind = "internal"
	KindValidation             Kind = "validation_error"
	KindOutOfStock             Kind = "out_of_stock"
	KindInsufficientStock      Kind = "insufficient_stock"
	KindCommitFailed           Kind = "commit_failed"
	KindPersistenceUnavailable Kind = "persistence_unavailable"
	KindCheckoutInProgress     Kind = "checkout_in_progress"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Detail  interface{}  `json:"detail,omitempty"`
	cause   error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StockShortage describes one cart line that the store could not cover at commit time
type StockShortage struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Retryable reports whether the caller may resubmit the same request unchanged
func (e *AppError) Retryable() bool {
	return e.Kind == KindCommitFailed || e.Kind == KindPersistenceUnavailable
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrForbidden      = &AppError{Code: http.StatusForbidden, Kind: KindForbidden, Message: "Forbidden"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrInvalidToken   = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Invalid token"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError is a shortcut for a validation error on a single field
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewOutOfStockError is returned when a product with no stock is added to a cart
func NewOutOfStockError(itemID, itemName string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindOutOfStock,
		Message: fmt.Sprintf("%s is out of stock", itemName),
		Detail:  StockShortage{ItemID: itemID, ItemName: itemName},
	}
}

// NewInsufficientStockError reports every line the store could not cover.
// The first shortage names the message; the full list is carried in Detail.
func NewInsufficientStockError(shortages []StockShortage) *AppError {
	msg := "Insufficient stock"
	if len(shortages) > 0 {
		s := shortages[0]
		msg = fmt.Sprintf("Insufficient stock for %s: %d available, %d requested", s.ItemName, s.Available, s.Requested)
	}
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindInsufficientStock,
		Message: msg,
		Detail:  shortages,
	}
}

// NewCommitFailedError wraps a transient store failure or exhausted retries
func NewCommitFailedError(cause error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindCommitFailed,
		Message: "Checkout could not be completed, please retry",
		cause:   cause,
	}
}

// NewPersistenceUnavailableError is returned when the backing store cannot be reached
func NewPersistenceUnavailableError(cause error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindPersistenceUnavailable,
		Message: "Persistence store is unavailable",
		cause:   cause,
	}
}

// NewCheckoutInProgressError rejects work on a session that is being committed
func NewCheckoutInProgressError() *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindCheckoutInProgress,
		Message: "Checkout is already in progress for this session",
	}
}

// Wrap attaches a cause to a copy of the error
func (e *AppError) Wrap(cause error) *AppError {
	cp := *e
	cp.cause = cause
	return &cp
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindInternal
	}
}
