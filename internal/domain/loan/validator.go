package loan

import (
	"errors"
	"fmt"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/pkg/apperrors"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Field names used as keys in ValidationResult.
const (
	FieldAmount        = "loanAmount"
	FieldTerm          = "terms"
	FieldMonthlyIncome = "monthlyIncome"
	FieldPurpose       = "purpose"
	FieldLoanType      = "loanType"
)

// ValidationResult maps each failing field to its error. An empty result is
// a pass.
type ValidationResult struct {
	Errors map[string]*apperrors.ValidationError
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{Errors: make(map[string]*apperrors.ValidationError)}
}

func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Has reports whether field failed with the given sentinel.
func (r *ValidationResult) Has(field string, code error) bool {
	fe, ok := r.Errors[field]
	return ok && errors.Is(fe, code)
}

// Err returns nil on success, otherwise an *apperrors.FieldErrors carrying
// every violation.
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return &apperrors.FieldErrors{Fields: r.Errors}
}

func (r *ValidationResult) add(field string, code error, message string) {
	if _, exists := r.Errors[field]; exists {
		return
	}
	r.Errors[field] = &apperrors.ValidationError{Field: field, Message: message, Cause: code}
}

// Validate checks an amount and a term against a lender's bounds. A nil
// policy only applies the positivity checks.
func Validate(amount decimal.Decimal, termMonths int, policy *lender.Policy) *ValidationResult {
	res := newValidationResult()
	validateAmount(res, amount, policy)
	validateTerm(res, termMonths, policy)
	return res
}

// ValidateRaw is Validate for unparsed form input.
func ValidateRaw(rawAmount, rawTerm string, policy *lender.Policy) *ValidationResult {
	res := newValidationResult()

	rawAmount = strings.TrimSpace(rawAmount)
	if rawAmount == "" {
		res.add(FieldAmount, apperrors.ErrInvalidAmount, "Loan amount is required")
	} else if amount, err := decimal.NewFromString(rawAmount); err != nil {
		res.add(FieldAmount, apperrors.ErrInvalidAmount, "Enter a valid amount")
	} else {
		validateAmount(res, amount, policy)
	}

	rawTerm = strings.TrimSpace(rawTerm)
	if rawTerm == "" {
		res.add(FieldTerm, apperrors.ErrInvalidTerm, "Loan term is required")
	} else if term, err := strconv.Atoi(rawTerm); err != nil {
		res.add(FieldTerm, apperrors.ErrInvalidTerm, "Enter a valid term")
	} else {
		validateTerm(res, term, policy)
	}

	return res
}

// ValidateRequest runs Validate and the application form checks on income,
// purpose and loan type.
func ValidateRequest(req LoanRequest, policy *lender.Policy) *ValidationResult {
	res := Validate(req.Principal, req.TermMonths, policy)

	if req.MonthlyIncome.IsZero() {
		res.add(FieldMonthlyIncome, apperrors.ErrMissingRequiredField, "Monthly income is required")
	} else if req.MonthlyIncome.IsNegative() {
		res.add(FieldMonthlyIncome, apperrors.ErrInvalidAmount, "Enter a valid income")
	}

	if strings.TrimSpace(string(req.Purpose)) == "" {
		res.add(FieldPurpose, apperrors.ErrMissingRequiredField, "Loan purpose is required")
	} else if !req.Purpose.Valid() {
		res.add(FieldPurpose, apperrors.ErrInvalidArgument, "Select a valid loan purpose")
	}

	if req.LoanType != "" && req.LoanType != LoanTypeNew && req.LoanType != LoanTypeBonus {
		res.add(FieldLoanType, apperrors.ErrInvalidArgument, "Select a valid loan type")
	}

	return res
}

func validateAmount(res *ValidationResult, amount decimal.Decimal, policy *lender.Policy) {
	if !amount.IsPositive() {
		res.add(FieldAmount, apperrors.ErrInvalidAmount, "Enter a valid amount")
		return
	}
	if policy == nil {
		return
	}
	if amount.LessThan(policy.MinAmount) {
		res.add(FieldAmount, apperrors.ErrAmountBelowMinimum, "Minimum amount is "+formatPeso(policy.MinAmount))
		return
	}
	if amount.GreaterThan(policy.MaxAmount) {
		res.add(FieldAmount, apperrors.ErrAmountAboveMaximum, "Maximum amount is "+formatPeso(policy.MaxAmount))
	}
}

func validateTerm(res *ValidationResult, termMonths int, policy *lender.Policy) {
	if termMonths <= 0 {
		res.add(FieldTerm, apperrors.ErrInvalidTerm, "Enter a valid term")
		return
	}
	if policy == nil {
		return
	}
	if termMonths < policy.MinTerm {
		res.add(FieldTerm, apperrors.ErrTermBelowMinimum, fmt.Sprintf("Minimum term is %d months", policy.MinTerm))
		return
	}
	if termMonths > policy.MaxTerm {
		res.add(FieldTerm, apperrors.ErrTermAboveMaximum, fmt.Sprintf("Maximum term is %d months", policy.MaxTerm))
	}
}

// formatPeso renders 5000 as "₱5,000" and 5000.5 as "₱5,000.5".
func formatPeso(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign, d = "-", d.Abs()
	}
	whole := d.Truncate(0)
	out := "₱" + sign + humanize.Comma(whole.IntPart())
	if frac := d.Sub(whole); !frac.IsZero() {
		out += strings.TrimPrefix(frac.String(), "0")
	}
	return out
}
