package dto

import (
	"errors"
	"fmt"
	"lora-lending/internal/pkg/apperrors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type ErrorDetail struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
}

func (r *TokenRequest) Validate() error {
	return validateStruct(r)
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// validateStruct runs the struct tags and reports the first failing field as
// an apperrors.ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidationError(lowerFirst(fe.Field()), describe(fe))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func formatMoney(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

var errInvalidAmount = apperrors.NewValidationError("amount", "Enter a valid amount")
