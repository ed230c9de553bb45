package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	ErrDatabase = errors.New("database error")

	ErrInternalServer = errors.New("internal server error")

	ErrConflict = errors.New("resource conflict")

	ErrUnauthorized = errors.New("unauthorized")
)

// Loan terms and calculation failures. None of these are retryable.
var (
	ErrInvalidAmount = errors.New("invalid amount")

	ErrInvalidTerm = errors.New("invalid term")

	ErrAmountBelowMinimum = errors.New("amount below lender minimum")

	ErrAmountAboveMaximum = errors.New("amount above lender maximum")

	ErrTermBelowMinimum = errors.New("term below lender minimum")

	ErrTermAboveMaximum = errors.New("term above lender maximum")

	ErrMissingRequiredField = errors.New("missing required field")

	ErrInvalidInput = errors.New("invalid calculation input")
)

// Loan lifecycle and payment failures.
var (
	ErrLoanProcessing = errors.New("loan is still being processed")

	ErrLoanFullyPaid = errors.New("loan is already fully paid")

	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	ErrInvalidTransition = errors.New("invalid loan status transition")
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

// FieldErrors reports every failing field of a request at once.
type FieldErrors struct {
	Fields map[string]*ValidationError
}

func (e *FieldErrors) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

func (e *FieldErrors) Unwrap() error {
	return ErrValidation
}

// Messages flattens the field map into field -> message.
func (e *FieldErrors) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for field, fe := range e.Fields {
		out[field] = fe.Message
	}
	return out
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}
