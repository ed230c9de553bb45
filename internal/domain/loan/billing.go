package loan

import (
	"fmt"
	"lora-lending/internal/pkg/apperrors"
	"lora-lending/internal/pkg/money"
	"time"

	"github.com/shopspring/decimal"
)

// DueDateUndetermined is shown while an application is still processing.
const DueDateUndetermined = "To be determined"

// DueDate is a due date that may not be set yet.
type DueDate struct {
	Date       time.Time
	Determined bool
}

func (d DueDate) String() string {
	if !d.Determined {
		return DueDateUndetermined
	}
	return d.Date.Format(time.DateOnly)
}

// BillingBreakdown is the bill shown to a borrower. It is rebuilt on every
// read.
type BillingBreakdown struct {
	ApplicationID  string
	Status         Status
	Principal      money.Amount
	InterestDue    money.Amount
	Penalties      money.Amount
	TotalAmountDue money.Amount
	MonthlyPayment money.Amount
	DueDate        DueDate
}

// BreakdownInput carries whatever is known about a loan. Principal,
// Amortization and DueDate are optional for Processing applications.
type BreakdownInput struct {
	ApplicationID string
	Status        Status
	Principal     *decimal.Decimal
	Amortization  *Amortization
	DueDate       *time.Time
}

// BuildBreakdown shapes a bill for a pending application or a loan on the
// books. Processing bills never show a figure that was not supplied: missing
// amounts stay Unknown rather than zero. Completed loans owe nothing.
func BuildBreakdown(in BreakdownInput) (*BillingBreakdown, error) {
	b := &BillingBreakdown{
		ApplicationID:  in.ApplicationID,
		Status:         in.Status,
		Principal:      money.Unknown(),
		InterestDue:    money.Unknown(),
		Penalties:      money.Unknown(),
		TotalAmountDue: money.Unknown(),
		MonthlyPayment: money.Unknown(),
	}

	switch in.Status {
	case StatusProcessing:
		if in.Principal != nil {
			b.Principal = money.Known(*in.Principal)
		} else if in.Amortization != nil {
			b.Principal = money.Known(in.Amortization.Principal)
		}
		return b, nil

	case StatusActive, StatusCompleted:
		if in.Amortization == nil {
			return nil, fmt.Errorf("%w: amortization is required for %s loan %s",
				apperrors.ErrMissingRequiredField, in.Status, in.ApplicationID)
		}
		if in.DueDate == nil {
			return nil, fmt.Errorf("%w: due date is required for %s loan %s",
				apperrors.ErrMissingRequiredField, in.Status, in.ApplicationID)
		}
		a := in.Amortization
		b.Principal = money.Known(a.Principal)
		b.InterestDue = money.Known(a.TotalInterest)
		b.Penalties = money.Zero()
		b.TotalAmountDue = money.Known(a.TotalPayment)
		b.MonthlyPayment = money.Known(a.MonthlyPayment)
		b.DueDate = DueDate{Date: *in.DueDate, Determined: true}
		if in.Status == StatusCompleted {
			b.TotalAmountDue = money.Zero()
		}
		return b, nil
	}

	return nil, fmt.Errorf("%w: unknown loan status %q", apperrors.ErrInvalidInput, in.Status)
}

// BreakdownFor builds the bill for a stored loan variant.
func BreakdownFor(sl StoredLoan) (*BillingBreakdown, error) {
	switch v := sl.(type) {
	case ProcessingLoan:
		p := v.Principal
		in := BreakdownInput{ApplicationID: v.ID, Status: StatusProcessing}
		if !p.IsZero() {
			in.Principal = &p
		}
		return BuildBreakdown(in)
	case ActiveLoan:
		due := v.DueDate
		return BuildBreakdown(BreakdownInput{ApplicationID: v.ID, Status: StatusActive, Amortization: v.Amortization, DueDate: &due})
	case CompletedLoan:
		due := v.DueDate
		return BuildBreakdown(BreakdownInput{ApplicationID: v.ID, Status: StatusCompleted, Amortization: v.Amortization, DueDate: &due})
	}
	return nil, fmt.Errorf("%w: unsupported stored loan %T", apperrors.ErrInvalidInput, sl)
}

// AmountDue is what must be paid to settle the loan now.
func (b *BillingBreakdown) AmountDue() (decimal.Decimal, bool) {
	return b.TotalAmountDue.Value()
}

// Billing builds the current bill for a stored record.
func (l *Loan) Billing() (*BillingBreakdown, error) {
	v, err := l.Variant()
	if err != nil {
		return nil, err
	}
	return BreakdownFor(v)
}
