package loan

import (
	"fmt"
	"lora-lending/internal/pkg/apperrors"
	"lora-lending/internal/pkg/money"
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleEntry is one monthly installment, rounded to cents.
type ScheduleEntry struct {
	Period    int
	DueDate   time.Time
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Total     decimal.Decimal
	Remaining decimal.Decimal
}

// GenerateSchedule lays out the installments of a for display. Each column is
// rounded on its running total so the rows add up to the rounded totals of a.
// The first installment falls due one month after startDate.
func GenerateSchedule(a *Amortization, startDate time.Time) ([]ScheduleEntry, error) {
	if a == nil || a.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: invalid amortization for schedule generation", apperrors.ErrInvalidInput)
	}

	schedule := make([]ScheduleEntry, 0, a.TermMonths)
	var rawPrincipal, rawInterest decimal.Decimal
	var paidPrincipal, paidInterest decimal.Decimal

	for i, p := range periods(a.Principal, a.TermMonths, a.InterestType, a.PeriodRate) {
		rawPrincipal = rawPrincipal.Add(p.principal)
		rawInterest = rawInterest.Add(p.interest)

		principal := money.RoundCents(rawPrincipal).Sub(paidPrincipal)
		interest := money.RoundCents(rawInterest).Sub(paidInterest)
		paidPrincipal = paidPrincipal.Add(principal)
		paidInterest = paidInterest.Add(interest)

		schedule = append(schedule, ScheduleEntry{
			Period:    i + 1,
			DueDate:   startDate.AddDate(0, i+1, 0),
			Principal: principal,
			Interest:  interest,
			Total:     principal.Add(interest),
			Remaining: money.RoundCents(a.Principal).Sub(paidPrincipal),
		})
	}

	expected := money.RoundCents(a.Principal).Add(money.RoundCents(a.TotalInterest))
	if got := paidPrincipal.Add(paidInterest); !got.Equal(expected) {
		return nil, fmt.Errorf("%w: schedule generation failed sanity check - total payment %s != expected total %s",
			apperrors.ErrInternalServer, got.StringFixed(2), expected.StringFixed(2))
	}

	return schedule, nil
}
