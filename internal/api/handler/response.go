package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"lora-lending/internal/api/handler/dto"
	"lora-lending/internal/pkg/apperrors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError maps domain sentinels onto HTTP statuses. Multi-field
// validation failures come back as 422 with every field message.
func respondError(w http.ResponseWriter, err error) {
	status, code, message, field := http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred.", ""
	var fields map[string]string
	var fieldErrs *apperrors.FieldErrors
	var validationError *apperrors.ValidationError

	switch {
	case errors.As(err, &fieldErrs):
		status, code, message, fields = http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Please correct the highlighted fields.", fieldErrs.Messages()
	case errors.As(err, &validationError):
		status, code, message, field = http.StatusBadRequest, "INVALID_FIELD", validationError.Message, validationError.Field
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", "Resource not found."
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required."
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		status, code, message = http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Insufficient wallet balance."
	case errors.Is(err, apperrors.ErrLoanProcessing):
		status, code, message = http.StatusConflict, "LOAN_PROCESSING", "This loan is still being processed."
	case errors.Is(err, apperrors.ErrLoanFullyPaid):
		status, code, message = http.StatusConflict, "LOAN_FULLY_PAID", "This loan is already fully paid."
	case errors.Is(err, apperrors.ErrInvalidTransition), errors.Is(err, apperrors.ErrConflict):
		status, code, message = http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrMissingRequiredField):
		status, code, message = http.StatusBadRequest, "BAD_REQUEST", err.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Code:    code,
			Message: message,
			Field:   field,
			Fields:  fields,
		},
	}
	respondJSON(w, status, resp)
}

func getInt64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", apperrors.ErrInvalidArgument, name)
	}
	return id, nil
}

func getLoanIDFromURL(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "loanID"))
	if id == "" {
		return "", fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument)
	}
	return id, nil
}
