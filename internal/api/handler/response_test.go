package handler

import (
	"errors"
	"fmt"
	"lora-lending/internal/api/handler/dto"
	"lora-lending/internal/pkg/apperrors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", fmt.Errorf("%w: loan L-1", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"single field", apperrors.NewValidationError("method", "is required"), http.StatusBadRequest, "INVALID_FIELD"},
		{"invalid argument", fmt.Errorf("%w: bad json", apperrors.ErrInvalidArgument), http.StatusBadRequest, "BAD_REQUEST"},
		{"processing", apperrors.ErrLoanProcessing, http.StatusConflict, "LOAN_PROCESSING"},
		{"fully paid", apperrors.ErrLoanFullyPaid, http.StatusConflict, "LOAN_FULLY_PAID"},
		{"transition", apperrors.ErrInvalidTransition, http.StatusConflict, "CONFLICT"},
		{"insufficient balance", apperrors.ErrInsufficientBalance, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			resp := decodeBody[dto.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestRespondErrorFieldErrors(t *testing.T) {
	err := &apperrors.FieldErrors{Fields: map[string]*apperrors.ValidationError{
		"loanAmount": {Field: "loanAmount", Message: "Minimum loan amount is ₱5,000.00", Cause: apperrors.ErrAmountBelowMinimum},
		"terms":      {Field: "terms", Message: "Maximum term is 12 months", Cause: apperrors.ErrTermAboveMaximum},
	}}

	rec := httptest.NewRecorder()
	respondError(rec, err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeBody[dto.ErrorResponse](t, rec)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	assert.Equal(t, map[string]string{
		"loanAmount": "Minimum loan amount is ₱5,000.00",
		"terms":      "Maximum term is 12 months",
	}, resp.Error.Fields)
}

func TestGetInt64Param(t *testing.T) {
	id, err := getInt64Param(newRequest(t, http.MethodGet, "/borrowers/7", nil, "borrowerID", "7"), "borrowerID")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = getInt64Param(newRequest(t, http.MethodGet, "/borrowers/x", nil, "borrowerID", "x"), "borrowerID")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = getInt64Param(newRequest(t, http.MethodGet, "/borrowers/-1", nil, "borrowerID", "-1"), "borrowerID")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = getInt64Param(newRequest(t, http.MethodGet, "/borrowers", nil), "borrowerID")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}
