package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func ErrInvalidIdentifier(fieldName string) *AppError {
	return New("VAL_001", fmt.Sprintf("%s must be a valid UUID", fieldName), http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrMissingRecipient(transferType string) *AppError {
	return New("VAL_003", fmt.Sprintf("Recipient is required for %s transfers", transferType), http.StatusBadRequest)
}

// ---- Transfer Business Logic (TRF) ----

func ErrInsufficientFunds() *AppError {
	return New("TRF_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrNotFound(entity string) *AppError {
	return New("TRF_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrNoActiveWallet() *AppError {
	return New("TRF_003", "User has no active wallets", http.StatusNotFound)
}

func ErrExternalTransferRejected(message string) *AppError {
	if message == "" {
		message = "External transfer rejected by provider"
	}
	return New("TRF_004", message, http.StatusBadGateway)
}

func ErrProvisioningFailure(err error) *AppError {
	return Wrap("TRF_005", "Failed to provision recipient wallet", http.StatusInternalServerError, err)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrRateLimitExceeded() *AppError {
	return New("SYS_002", "Too many requests, slow down", http.StatusTooManyRequests)
}

// Validation returns a VAL_002-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("VAL_002", message, http.StatusBadRequest)
}
