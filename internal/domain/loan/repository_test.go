package loan

import (
	"context"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/domain/wallet"
	"lora-lending/internal/event"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

type TxMock struct {
	pgx.Tx
}

var tx pgx.Tx = &TxMock{}

func (m *MockRepository) CreateLoan(ctx context.Context, loan *Loan) error {
	return m.Called(ctx, loan).Error(0)
}

func (m *MockRepository) GetLoanByID(ctx context.Context, loanID string) (*Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Loan), args.Error(1)
}

func (m *MockRepository) ListLoansByBorrower(ctx context.Context, borrowerID int64) ([]*Loan, error) {
	args := m.Called(ctx, borrowerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Loan), args.Error(1)
}

func (m *MockRepository) FindLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID string) (*Loan, error) {
	args := m.Called(ctx, tx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Loan), args.Error(1)
}

func (m *MockRepository) UpdateLoanInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error {
	return m.Called(ctx, tx, loan).Error(0)
}

func (m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetWallet(ctx context.Context, borrowerID int64) (*wallet.Wallet, error) {
	args := m.Called(ctx, borrowerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, borrowerID int64, limit int) ([]*wallet.Transaction, error) {
	args := m.Called(ctx, borrowerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wallet.Transaction), args.Error(1)
}

func (m *MockWalletRepository) LockWalletInTx(ctx context.Context, tx pgx.Tx, borrowerID int64) (*wallet.Wallet, error) {
	args := m.Called(ctx, tx, borrowerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateBalanceInTx(ctx context.Context, tx pgx.Tx, w *wallet.Wallet) error {
	return m.Called(ctx, tx, w).Error(0)
}

func (m *MockWalletRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, t *wallet.Transaction) error {
	return m.Called(ctx, tx, t).Error(0)
}

func (m *MockWalletRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockWalletRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockWalletRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

type MockLenderService struct {
	mock.Mock
}

func (m *MockLenderService) ListLenders(ctx context.Context) ([]*lender.Policy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lender.Policy), args.Error(1)
}

func (m *MockLenderService) GetLender(ctx context.Context, lenderID int64) (*lender.Policy, error) {
	args := m.Called(ctx, lenderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lender.Policy), args.Error(1)
}

func (m *MockLenderService) RefreshCatalog(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLoanSubmitted(ctx context.Context, e event.LoanEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEventPublisher) PublishLoanApproved(ctx context.Context, e event.LoanEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEventPublisher) PublishLoanCompleted(ctx context.Context, e event.LoanEvent) error {
	return m.Called(ctx, e).Error(0)
}
