package loan

import (
	"lora-lending/internal/pkg/apperrors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoan(t *testing.T) *Loan {
	t.Helper()
	req := LoanRequest{
		Principal:     d("10000"),
		TermMonths:    2,
		Purpose:       PurposeBusinessCapital,
		MonthlyIncome: d("30000"),
		Collateral:    []Collateral{CollateralPassbook},
	}
	a, err := ComputeAmortization(req.Principal, req.TermMonths, ocsPolicy())
	require.NoError(t, err)
	l, err := NewLoan(42, ocsPolicy(), req, a, time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return l
}

func TestNewApplicationID(t *testing.T) {
	pattern := regexp.MustCompile(`^L-[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewApplicationID()
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 95)
}

func TestNewLoan(t *testing.T) {
	l := newTestLoan(t)

	assert.Equal(t, StatusProcessing, l.Status)
	assert.Equal(t, LoanTypeNew, l.LoanType)
	assert.Equal(t, "OCS Lending Incorporated", l.LenderName)
	assert.Equal(t, []string{"PASSBOOK"}, l.Collateral)
	assert.Nil(t, l.DueDate)
	assert.True(t, l.TotalPayment.Equal(d("11500")))

	_, err := NewLoan(0, ocsPolicy(), LoanRequest{}, &Amortization{}, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	_, err = NewLoan(1, ocsPolicy(), LoanRequest{}, nil, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrMissingRequiredField)
}

func TestLoanLifecycle(t *testing.T) {
	l := newTestLoan(t)

	assert.ErrorIs(t, l.Complete(time.Now()), apperrors.ErrLoanProcessing)

	approvedAt := time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)
	require.NoError(t, l.Approve(approvedAt))
	assert.Equal(t, StatusActive, l.Status)
	require.NotNil(t, l.DueDate)
	assert.Equal(t, time.Date(2025, 2, 20, 9, 30, 0, 0, time.UTC), *l.DueDate)

	assert.ErrorIs(t, l.Approve(approvedAt), apperrors.ErrInvalidTransition)

	require.NoError(t, l.Complete(approvedAt.AddDate(0, 0, 10)))
	assert.Equal(t, StatusCompleted, l.Status)
	assert.ErrorIs(t, l.Complete(time.Now()), apperrors.ErrLoanFullyPaid)
}

func TestLoanVariant(t *testing.T) {
	l := newTestLoan(t)

	v, err := l.Variant()
	require.NoError(t, err)
	assert.IsType(t, ProcessingLoan{}, v)

	require.NoError(t, l.Approve(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)))
	v, err = l.Variant()
	require.NoError(t, err)
	active, ok := v.(ActiveLoan)
	require.True(t, ok)
	assert.True(t, active.Amortization.MonthlyPayment.Equal(d("5750")))

	l.DueDate = nil
	_, err = l.Variant()
	assert.ErrorIs(t, err, apperrors.ErrMissingRequiredField)

	l.Status = "UNKNOWN"
	_, err = l.Variant()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestLoanBilling(t *testing.T) {
	l := newTestLoan(t)

	b, err := l.Billing()
	require.NoError(t, err)
	assert.Equal(t, "TBD", b.TotalAmountDue.String())
	assert.Equal(t, "To be determined", b.DueDate.String())

	require.NoError(t, l.Approve(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)))
	b, err = l.Billing()
	require.NoError(t, err)
	assert.Equal(t, "11500.00", b.TotalAmountDue.String())
	assert.Equal(t, "2025-02-20", b.DueDate.String())
}
