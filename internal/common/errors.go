package common

import "net/http"

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Canonical error codes surfaced to the widget. Every domain error maps onto
// one of these; none is fatal to the process and the registry stays usable
// after any of them.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeValidation   = "VALIDATION"
	CodeNotFound     = "NOT_FOUND"
	CodeEmptyOrder   = "EMPTY_ORDER"
	CodeInternal     = "INTERNAL"
)

// NotFound wraps err as a 404 AppError.
func NotFound(message string, err error) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound, err)
}
