package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/domain/loan"
	"lora-lending/internal/domain/wallet"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) Quote(ctx context.Context, lenderID int64, amount decimal.Decimal, termMonths int) (*loan.Quote, error) {
	args := m.Called(ctx, lenderID, amount, termMonths)
	q, _ := args.Get(0).(*loan.Quote)
	return q, args.Error(1)
}

func (m *MockLoanService) QuoteAll(ctx context.Context, amount decimal.Decimal, termMonths int) ([]*loan.Quote, error) {
	args := m.Called(ctx, amount, termMonths)
	quotes, _ := args.Get(0).([]*loan.Quote)
	return quotes, args.Error(1)
}

func (m *MockLoanService) Submit(ctx context.Context, borrowerID, lenderID int64, req loan.LoanRequest) (*loan.Loan, error) {
	args := m.Called(ctx, borrowerID, lenderID, req)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) Approve(ctx context.Context, loanID string, approvedAt time.Time) (*loan.Loan, error) {
	args := m.Called(ctx, loanID, approvedAt)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID string) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) ListBorrowerLoans(ctx context.Context, borrowerID int64) ([]*loan.Loan, error) {
	args := m.Called(ctx, borrowerID)
	loans, _ := args.Get(0).([]*loan.Loan)
	return loans, args.Error(1)
}

func (m *MockLoanService) GetBilling(ctx context.Context, loanID string) (*loan.BillingBreakdown, error) {
	args := m.Called(ctx, loanID)
	b, _ := args.Get(0).(*loan.BillingBreakdown)
	return b, args.Error(1)
}

func (m *MockLoanService) GetSchedule(ctx context.Context, loanID string) ([]loan.ScheduleEntry, error) {
	args := m.Called(ctx, loanID)
	entries, _ := args.Get(0).([]loan.ScheduleEntry)
	return entries, args.Error(1)
}

func (m *MockLoanService) Pay(ctx context.Context, loanID string, method wallet.Method) (*wallet.Transaction, error) {
	args := m.Called(ctx, loanID, method)
	txn, _ := args.Get(0).(*wallet.Transaction)
	return txn, args.Error(1)
}

type MockLenderService struct {
	mock.Mock
}

func (m *MockLenderService) ListLenders(ctx context.Context) ([]*lender.Policy, error) {
	args := m.Called(ctx)
	policies, _ := args.Get(0).([]*lender.Policy)
	return policies, args.Error(1)
}

func (m *MockLenderService) GetLender(ctx context.Context, lenderID int64) (*lender.Policy, error) {
	args := m.Called(ctx, lenderID)
	p, _ := args.Get(0).(*lender.Policy)
	return p, args.Error(1)
}

func (m *MockLenderService) RefreshCatalog(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetWallet(ctx context.Context, borrowerID int64) (*wallet.Wallet, error) {
	args := m.Called(ctx, borrowerID)
	w, _ := args.Get(0).(*wallet.Wallet)
	return w, args.Error(1)
}

func (m *MockWalletService) CashIn(ctx context.Context, borrowerID int64, amount decimal.Decimal, method wallet.Method) (*wallet.Transaction, error) {
	args := m.Called(ctx, borrowerID, amount, method)
	txn, _ := args.Get(0).(*wallet.Transaction)
	return txn, args.Error(1)
}

func (m *MockWalletService) Transfer(ctx context.Context, borrowerID int64, amount decimal.Decimal, accountNumber, note string) (*wallet.Transaction, error) {
	args := m.Called(ctx, borrowerID, amount, accountNumber, note)
	txn, _ := args.Get(0).(*wallet.Transaction)
	return txn, args.Error(1)
}

func (m *MockWalletService) ListTransactions(ctx context.Context, borrowerID int64, limit int) ([]*wallet.Transaction, error) {
	args := m.Called(ctx, borrowerID, limit)
	txns, _ := args.Get(0).([]*wallet.Transaction)
	return txns, args.Error(1)
}

var (
	_ loan.LoanService     = (*MockLoanService)(nil)
	_ lender.LenderService = (*MockLenderService)(nil)
	_ wallet.WalletService = (*MockWalletService)(nil)
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ocsPolicy() *lender.Policy {
	return &lender.Policy{
		ID:            1,
		Name:          "OCS Lending Incorporated",
		InterestType:  lender.InterestFlat,
		InterestRate:  d("0.075"),
		MinAmount:     d("5000"),
		MaxAmount:     d("50000"),
		MinTerm:       2,
		MaxTerm:       12,
		ProcessingFee: d("750"),
		Requirements:  []string{"Valid ID"},
	}
}

// newRequest builds a request with chi URL params set as key/value pairs.
func newRequest(t *testing.T, method, target string, body any, params ...string) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}
