package loan

import (
	"fmt"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/pkg/apperrors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusActive     Status = "ACTIVE"
	StatusCompleted  Status = "COMPLETED"
)

func (s Status) Valid() bool {
	return s == StatusProcessing || s == StatusActive || s == StatusCompleted
}

// ApplicationIDPrefix starts every application id, e.g. "L-3F9A0C1B".
const ApplicationIDPrefix = "L-"

func NewApplicationID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return ApplicationIDPrefix + strings.ToUpper(id[:8])
}

// Loan is a persisted application. The pricing fields are captured at
// submission and do not change afterwards.
type Loan struct {
	ID         string
	BorrowerID int64
	LenderID   int64
	LenderName string

	Principal      decimal.Decimal
	TermMonths     int
	Purpose        Purpose
	Collateral     []string
	MonthlyIncome  decimal.Decimal
	LoanType       LoanType
	InterestType   lender.InterestType
	PeriodRate     decimal.Decimal
	TotalInterest  decimal.Decimal
	TotalPayment   decimal.Decimal
	MonthlyPayment decimal.Decimal
	ProcessingFee  decimal.Decimal
	NetRelease     decimal.Decimal
	Status         Status
	DueDate        *time.Time
	SubmittedAt    time.Time
	ApprovedAt     *time.Time
	CompletedAt    *time.Time
	UpdatedAt      time.Time
}

// NewLoan builds a Processing record from a validated request and its price.
func NewLoan(borrowerID int64, policy *lender.Policy, req LoanRequest, a *Amortization, submittedAt time.Time) (*Loan, error) {
	if borrowerID <= 0 {
		return nil, fmt.Errorf("%w: borrower ID must be positive", apperrors.ErrInvalidArgument)
	}
	if policy == nil || a == nil {
		return nil, fmt.Errorf("%w: lender policy and amortization are required", apperrors.ErrMissingRequiredField)
	}
	loanType := req.LoanType
	if loanType == "" {
		loanType = LoanTypeNew
	}
	return &Loan{
		ID:             NewApplicationID(),
		BorrowerID:     borrowerID,
		LenderID:       policy.ID,
		LenderName:     policy.Name,
		Principal:      a.Principal,
		TermMonths:     a.TermMonths,
		Purpose:        req.Purpose,
		Collateral:     req.CollateralSummary(),
		MonthlyIncome:  req.MonthlyIncome,
		LoanType:       loanType,
		InterestType:   a.InterestType,
		PeriodRate:     a.PeriodRate,
		TotalInterest:  a.TotalInterest,
		TotalPayment:   a.TotalPayment,
		MonthlyPayment: a.MonthlyPayment,
		ProcessingFee:  a.ProcessingFee,
		NetRelease:     a.NetRelease,
		Status:         StatusProcessing,
		SubmittedAt:    submittedAt,
		UpdatedAt:      submittedAt,
	}, nil
}

// Amortization rebuilds the pricing captured at submission.
func (l *Loan) Amortization() *Amortization {
	return &Amortization{
		Principal:      l.Principal,
		TermMonths:     l.TermMonths,
		InterestType:   l.InterestType,
		PeriodRate:     l.PeriodRate,
		InterestRate:   l.PeriodRate.Mul(hundred),
		TotalInterest:  l.TotalInterest,
		TotalPayment:   l.TotalPayment,
		MonthlyPayment: l.MonthlyPayment,
		ProcessingFee:  l.ProcessingFee,
		NetRelease:     l.NetRelease,
	}
}

// Approve moves a Processing loan to Active. The first due date is one month
// after approval.
func (l *Loan) Approve(at time.Time) error {
	if l.Status != StatusProcessing {
		return fmt.Errorf("%w: cannot approve loan %s in status %s", apperrors.ErrInvalidTransition, l.ID, l.Status)
	}
	due := at.AddDate(0, 1, 0)
	l.Status = StatusActive
	l.ApprovedAt = &at
	l.DueDate = &due
	l.UpdatedAt = at
	return nil
}

// Complete marks an Active loan as repaid in full.
func (l *Loan) Complete(at time.Time) error {
	switch l.Status {
	case StatusProcessing:
		return fmt.Errorf("%w: loan %s", apperrors.ErrLoanProcessing, l.ID)
	case StatusCompleted:
		return fmt.Errorf("%w: loan %s", apperrors.ErrLoanFullyPaid, l.ID)
	}
	l.Status = StatusCompleted
	l.CompletedAt = &at
	l.UpdatedAt = at
	return nil
}

// StoredLoan is a loan record narrowed to what its status guarantees.
type StoredLoan interface {
	LoanID() string
	LoanStatus() Status
	storedLoan()
}

type ProcessingLoan struct {
	ID          string
	Principal   decimal.Decimal
	SubmittedAt time.Time
}

type ActiveLoan struct {
	ID           string
	Amortization *Amortization
	DueDate      time.Time
}

type CompletedLoan struct {
	ID           string
	Amortization *Amortization
	DueDate      time.Time
	CompletedAt  time.Time
}

func (p ProcessingLoan) LoanID() string { return p.ID }
func (p ProcessingLoan) LoanStatus() Status { return StatusProcessing }
func (ProcessingLoan) storedLoan() {}

func (a ActiveLoan) LoanID() string { return a.ID }
func (a ActiveLoan) LoanStatus() Status { return StatusActive }
func (ActiveLoan) storedLoan() {}

func (c CompletedLoan) LoanID() string { return c.ID }
func (c CompletedLoan) LoanStatus() Status { return StatusCompleted }
func (CompletedLoan) storedLoan() {}

// Variant narrows the record. A non-Processing record without a due date is
// corrupt and reported as ErrMissingRequiredField.
func (l *Loan) Variant() (StoredLoan, error) {
	switch l.Status {
	case StatusProcessing:
		return ProcessingLoan{ID: l.ID, Principal: l.Principal, SubmittedAt: l.SubmittedAt}, nil
	case StatusActive:
		if l.DueDate == nil {
			return nil, fmt.Errorf("%w: active loan %s has no due date", apperrors.ErrMissingRequiredField, l.ID)
		}
		return ActiveLoan{ID: l.ID, Amortization: l.Amortization(), DueDate: *l.DueDate}, nil
	case StatusCompleted:
		if l.DueDate == nil {
			return nil, fmt.Errorf("%w: completed loan %s has no due date", apperrors.ErrMissingRequiredField, l.ID)
		}
		c := CompletedLoan{ID: l.ID, Amortization: l.Amortization(), DueDate: *l.DueDate}
		if l.CompletedAt != nil {
			c.CompletedAt = *l.CompletedAt
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown loan status %q", apperrors.ErrInvalidInput, l.Status)
}
