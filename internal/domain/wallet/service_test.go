package wallet

import (
	"context"
	"errors"
	"log/slog"
	"lora-lending/internal/pkg/apperrors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) GetWallet(ctx context.Context, borrowerID int64) (*Wallet, error) {
	ret := _m.Called(ctx, borrowerID)
	var r0 *Wallet
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Wallet)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListTransactions(ctx context.Context, borrowerID int64, limit int) ([]*Transaction, error) {
	ret := _m.Called(ctx, borrowerID, limit)
	var r0 []*Transaction
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Transaction)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) LockWalletInTx(ctx context.Context, tx pgx.Tx, borrowerID int64) (*Wallet, error) {
	ret := _m.Called(ctx, tx, borrowerID)
	var r0 *Wallet
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Wallet)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateBalanceInTx(ctx context.Context, tx pgx.Tx, w *Wallet) error {
	return _m.Called(ctx, tx, w).Error(0)
}

func (_m *MockRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, t *Transaction) error {
	return _m.Called(ctx, tx, t).Error(0)
}

func (_m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	ret := _m.Called(ctx)
	var r0 pgx.Tx
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(pgx.Tx)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return _m.Called(ctx, tx).Error(0)
}

func (_m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return _m.Called(ctx, tx).Error(0)
}

func newTestService(repo Repository) *walletServiceImpl {
	svc := NewWalletService(repo, logger).(*walletServiceImpl)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestGetWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("existing wallet", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetWallet", ctx, int64(7)).Return(&Wallet{BorrowerID: 7, Balance: decimal.NewFromInt(1200)}, nil)

		w, err := newTestService(repo).GetWallet(ctx, 7)
		require.NoError(t, err)
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(1200)))
	})

	t.Run("missing wallet reads as empty", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetWallet", ctx, int64(8)).Return(nil, apperrors.ErrNotFound)

		w, err := newTestService(repo).GetWallet(ctx, 8)
		require.NoError(t, err)
		assert.True(t, w.Balance.IsZero())
	})

	t.Run("database failure", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetWallet", ctx, int64(9)).Return(nil, errors.New("conn reset"))

		_, err := newTestService(repo).GetWallet(ctx, 9)
		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	})
}

func TestCashIn(t *testing.T) {
	ctx := context.Background()

	t.Run("card cash in credits amount less fee", func(t *testing.T) {
		repo := new(MockRepository)
		w := &Wallet{BorrowerID: 7, Balance: decimal.NewFromInt(100)}
		repo.On("BeginTx", ctx).Return(nil, nil).Once()
		repo.On("LockWalletInTx", ctx, nil, int64(7)).Return(w, nil).Once()
		repo.On("UpdateBalanceInTx", ctx, nil, w).Return(nil).Once()
		repo.On("InsertTransactionInTx", ctx, nil, mock.MatchedBy(func(txn *Transaction) bool {
			return txn.Type == TypeCashIn && txn.Fee.Equal(decimal.NewFromInt(20)) && txn.Method == MethodCard
		})).Return(nil).Once()
		repo.On("CommitTx", ctx, nil).Return(nil).Once()

		txn, err := newTestService(repo).CashIn(ctx, 7, decimal.NewFromInt(1000), MethodCard)

		require.NoError(t, err)
		assert.Equal(t, "1080.00", txn.BalanceAfter.StringFixed(2))
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "RollbackTx", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		repo := new(MockRepository)
		_, err := newTestService(repo).CashIn(ctx, 7, decimal.Zero, MethodBank)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		repo.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("rejects wallet as a cash in method", func(t *testing.T) {
		_, err := newTestService(new(MockRepository)).CashIn(ctx, 7, decimal.NewFromInt(10), MethodWallet)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("over the counter amount must exceed fee", func(t *testing.T) {
		_, err := newTestService(new(MockRepository)).CashIn(ctx, 7, decimal.NewFromInt(15), MethodOverCounter)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rolls back when insert fails", func(t *testing.T) {
		repo := new(MockRepository)
		w := &Wallet{BorrowerID: 7}
		repo.On("BeginTx", ctx).Return(nil, nil).Once()
		repo.On("LockWalletInTx", ctx, nil, int64(7)).Return(w, nil).Once()
		repo.On("UpdateBalanceInTx", ctx, nil, w).Return(nil).Once()
		repo.On("InsertTransactionInTx", ctx, nil, mock.Anything).Return(errors.New("boom")).Once()
		repo.On("RollbackTx", ctx, nil).Return(nil).Once()

		_, err := newTestService(repo).CashIn(ctx, 7, decimal.NewFromInt(500), MethodBank)

		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
		repo.AssertExpectations(t)
	})
}

func TestPostInTx(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("wallet payment debits balance", func(t *testing.T) {
		repo := new(MockRepository)
		w := &Wallet{BorrowerID: 3, Balance: decimal.NewFromInt(12000)}
		repo.On("LockWalletInTx", ctx, nil, int64(3)).Return(w, nil)
		repo.On("UpdateBalanceInTx", ctx, nil, w).Return(nil)
		repo.On("InsertTransactionInTx", ctx, nil, mock.Anything).Return(nil)

		txn, err := PostInTx(ctx, repo, nil, Entry{BorrowerID: 3, Type: TypePayment, Amount: decimal.NewFromInt(11500), Method: MethodWallet, Reference: "L-ABCD1234", At: at})

		require.NoError(t, err)
		assert.Equal(t, "500.00", txn.BalanceAfter.StringFixed(2))
		assert.Equal(t, "L-ABCD1234", txn.Reference)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LockWalletInTx", ctx, nil, int64(3)).Return(&Wallet{BorrowerID: 3, Balance: decimal.NewFromInt(100)}, nil)

		_, err := PostInTx(ctx, repo, nil, Entry{BorrowerID: 3, Type: TypePayment, Amount: decimal.NewFromInt(11500), Method: MethodWallet, At: at})

		assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
		repo.AssertNotCalled(t, "UpdateBalanceInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("external payment leaves balance alone", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LockWalletInTx", ctx, nil, int64(3)).Return(&Wallet{BorrowerID: 3, Balance: decimal.NewFromInt(100)}, nil)
		repo.On("InsertTransactionInTx", ctx, nil, mock.Anything).Return(nil)

		txn, err := PostInTx(ctx, repo, nil, Entry{BorrowerID: 3, Type: TypePayment, Amount: decimal.NewFromInt(11500), Method: MethodGCash, At: at})

		require.NoError(t, err)
		assert.Equal(t, "100.00", txn.BalanceAfter.StringFixed(2))
		repo.AssertNotCalled(t, "UpdateBalanceInTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCashInFee(t *testing.T) {
	amount := decimal.NewFromInt(1000)
	assert.True(t, CashInFee(MethodBank, amount).IsZero())
	assert.True(t, CashInFee(MethodEWallet, amount).IsZero())
	assert.Equal(t, "20.00", CashInFee(MethodCard, amount).StringFixed(2))
	assert.Equal(t, "15.00", CashInFee(MethodOverCounter, amount).StringFixed(2))
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("debits the wallet and records the account", func(t *testing.T) {
		repo := new(MockRepository)
		w := &Wallet{BorrowerID: 7, Balance: decimal.NewFromInt(5000)}
		repo.On("BeginTx", ctx).Return(nil, nil).Once()
		repo.On("LockWalletInTx", ctx, nil, int64(7)).Return(w, nil).Once()
		repo.On("UpdateBalanceInTx", ctx, nil, w).Return(nil).Once()
		repo.On("InsertTransactionInTx", ctx, nil, mock.MatchedBy(func(txn *Transaction) bool {
			return txn.Type == TypeTransfer && txn.Reference == "0123456789" && txn.Note == "rent" && txn.Fee.IsZero()
		})).Return(nil).Once()
		repo.On("CommitTx", ctx, nil).Return(nil).Once()

		txn, err := newTestService(repo).Transfer(ctx, 7, decimal.RequireFromString("1250.50"), " 0123456789 ", " rent ")

		require.NoError(t, err)
		assert.Equal(t, "3749.50", txn.BalanceAfter.StringFixed(2))
		assert.Equal(t, "Transfer", txn.Type.Title())
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "RollbackTx", mock.Anything, mock.Anything)
	})

	t.Run("insufficient balance rolls back", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("BeginTx", ctx).Return(nil, nil).Once()
		repo.On("LockWalletInTx", ctx, nil, int64(7)).Return(&Wallet{BorrowerID: 7, Balance: decimal.NewFromInt(100)}, nil).Once()
		repo.On("RollbackTx", ctx, nil).Return(nil).Once()

		_, err := newTestService(repo).Transfer(ctx, 7, decimal.NewFromInt(500), "0123456789", "")

		assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "UpdateBalanceInTx", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
	})

	cases := []struct {
		name    string
		amount  decimal.Decimal
		account string
		note    string
		field   string
		message string
	}{
		{"missing account", decimal.NewFromInt(10), "  ", "", "accountNumber", "Please enter amount and account number"},
		{"zero amount", decimal.Zero, "0123456789", "", "amount", "Amount must be greater than 0"},
		{"negative amount", decimal.NewFromInt(-5), "0123456789", "", "amount", "Amount must be greater than 0"},
		{"short account", decimal.NewFromInt(10), "12345", "", "accountNumber", "Account number must be at least 10 digits"},
		{"non-digit account", decimal.NewFromInt(10), "01234-56789", "", "accountNumber", "Account number must be at least 10 digits"},
		{"long note", decimal.NewFromInt(10), "0123456789", strings.Repeat("x", MaxTransferNoteLength+1), "note", "Note must be at most 140 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockRepository)
			_, err := newTestService(repo).Transfer(ctx, 7, tc.amount, tc.account, tc.note)

			require.ErrorIs(t, err, apperrors.ErrValidation)
			var ve *apperrors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
			assert.Equal(t, tc.message, ve.Message)
			repo.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}
