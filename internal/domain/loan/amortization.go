package loan

import (
	"fmt"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Amortization is the full cost of borrowing Principal over TermMonths under
// one lender policy. Values are unrounded; round only for display.
type Amortization struct {
	Principal    decimal.Decimal
	TermMonths   int
	InterestType lender.InterestType
	// PeriodRate is the fraction charged per month.
	PeriodRate decimal.Decimal
	// InterestRate is PeriodRate as a percentage.
	InterestRate   decimal.Decimal
	TotalInterest  decimal.Decimal
	TotalPayment   decimal.Decimal
	MonthlyPayment decimal.Decimal
	ProcessingFee  decimal.Decimal
	NetRelease     decimal.Decimal
}

// ComputeAmortization prices a loan.
//
// Flat interest charges the rate on the original principal every month.
// Diminishing interest charges it on the balance left after equal principal
// repayments. In both cases MonthlyPayment is the total spread evenly over
// the term, not a level annuity installment.
func ComputeAmortization(principal decimal.Decimal, termMonths int, policy *lender.Policy) (*Amortization, error) {
	if policy == nil {
		return nil, fmt.Errorf("%w: lender policy is required", apperrors.ErrInvalidInput)
	}
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", apperrors.ErrInvalidInput, principal)
	}
	if termMonths <= 0 {
		return nil, fmt.Errorf("%w: term must be positive, got %d", apperrors.ErrInvalidInput, termMonths)
	}
	if policy.InterestRate.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate cannot be negative", apperrors.ErrInvalidInput)
	}
	if !policy.InterestType.Valid() {
		return nil, fmt.Errorf("%w: unknown interest type %q", apperrors.ErrInvalidInput, policy.InterestType)
	}

	var totalInterest decimal.Decimal
	for _, p := range periods(principal, termMonths, policy.InterestType, policy.InterestRate) {
		totalInterest = totalInterest.Add(p.interest)
	}

	totalPayment := principal.Add(totalInterest)
	return &Amortization{
		Principal:      principal,
		TermMonths:     termMonths,
		InterestType:   policy.InterestType,
		PeriodRate:     policy.InterestRate,
		InterestRate:   policy.InterestRate.Mul(hundred),
		TotalInterest:  totalInterest,
		TotalPayment:   totalPayment,
		MonthlyPayment: totalPayment.Div(decimal.NewFromInt(int64(termMonths))),
		ProcessingFee:  policy.ProcessingFee,
		NetRelease:     principal.Sub(policy.ProcessingFee),
	}, nil
}

type period struct {
	principal decimal.Decimal
	interest  decimal.Decimal
	remaining decimal.Decimal
}

// periods splits principal into equal monthly parts and prices each month.
// The last period clears the balance exactly.
func periods(principal decimal.Decimal, termMonths int, it lender.InterestType, rate decimal.Decimal) []period {
	out := make([]period, 0, termMonths)
	monthlyPrincipal := principal.Div(decimal.NewFromInt(int64(termMonths)))
	flatInterest := principal.Mul(rate)
	remaining := principal

	for i := 1; i <= termMonths; i++ {
		interest := flatInterest
		if it == lender.InterestDiminishing {
			interest = remaining.Mul(rate)
		}

		part := monthlyPrincipal
		if i == termMonths {
			part = remaining
			remaining = decimal.Zero
		} else {
			remaining = remaining.Sub(monthlyPrincipal)
		}
		out = append(out, period{principal: part, interest: interest, remaining: remaining})
	}
	return out
}
