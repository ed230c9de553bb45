package postgres

import (
	"context"
	"lora-lending/internal/domain/wallet"
	"lora-lending/internal/pkg/apperrors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var walletColumnNames = []string{"borrower_id", "balance", "created_at", "updated_at"}

func setupWalletRepo(t *testing.T) (context.Context, *WalletRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	return context.Background(), NewWalletRepository(mockPool, testLogger), mockPool
}

func TestGetWallet(t *testing.T) {
	ctx, repo, mockPool := setupWalletRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE borrower_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(walletColumnNames).AddRow(int64(7), decimal.RequireFromString("1250.50"), seededAt, seededAt))

	w, err := repo.GetWallet(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.BorrowerID)
	assert.Equal(t, "1250.5", w.Balance.String())
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetWalletNotFound(t *testing.T) {
	ctx, repo, mockPool := setupWalletRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE borrower_id = $1")).
		WithArgs(int64(8)).
		WillReturnError(pgx.ErrNoRows)

	w, err := repo.GetWallet(ctx, 8)
	assert.Nil(t, w)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListTransactions(t *testing.T) {
	ctx, repo, mockPool := setupWalletRepo(t)
	defer mockPool.Close()

	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "borrower_id", "type", "amount", "fee", "method", "reference", "note", "balance_after", "created_at"}).
		AddRow(id, int64(7), "CASH_IN", decimal.NewFromInt(1000), decimal.NewFromInt(20), "CARD", "", "", decimal.NewFromInt(980), seededAt)
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM wallet_transactions")).
		WithArgs(int64(7), 50).
		WillReturnRows(rows)

	txns, err := repo.ListTransactions(ctx, 7, 50)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, id, txns[0].ID)
	assert.Equal(t, wallet.TypeCashIn, txns[0].Type)
	assert.Equal(t, wallet.MethodCard, txns[0].Method)
	assert.Equal(t, "Cash In", txns[0].Type.Title())
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestPostCashInWithinTransaction(t *testing.T) {
	ctx, repo, mockPool := setupWalletRepo(t)
	defer mockPool.Close()

	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO wallets (borrower_id) VALUES ($1) ON CONFLICT (borrower_id) DO NOTHING")).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE borrower_id = $1 FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(walletColumnNames).AddRow(int64(7), decimal.NewFromInt(100), seededAt, seededAt))
	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance = $1, updated_at = $2 WHERE borrower_id = $3")).
		WithArgs(pgxmock.AnyArg(), now, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WithArgs(anyArgs(10)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	txn, err := wallet.PostInTx(ctx, repo, tx, wallet.Entry{
		BorrowerID: 7,
		Type:       wallet.TypeCashIn,
		Amount:     decimal.NewFromInt(1000),
		Fee:        decimal.NewFromInt(20),
		Method:     wallet.MethodCard,
		At:         now,
	})
	require.NoError(t, err)
	assert.Equal(t, "1080", txn.BalanceAfter.String())
	require.NoError(t, repo.CommitTx(ctx, tx))

	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestPostTransferWithinTransaction(t *testing.T) {
	ctx, repo, mockPool := setupWalletRepo(t)
	defer mockPool.Close()

	now := time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)
	balance := decimal.RequireFromString("749.50")
	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO wallets (borrower_id) VALUES ($1) ON CONFLICT (borrower_id) DO NOTHING")).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE borrower_id = $1 FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(walletColumnNames).AddRow(int64(7), decimal.NewFromInt(2000), seededAt, seededAt))
	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance = $1, updated_at = $2 WHERE borrower_id = $3")).
		WithArgs(pgxmock.AnyArg(), now, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_transactions (id, borrower_id, type, amount, fee, method, reference, note, balance_after, created_at)")).
		WithArgs(pgxmock.AnyArg(), int64(7), "TRANSFER", decimal.RequireFromString("1250.50"), decimal.Zero, "BANK", "0123456789", "rent", pgxmock.AnyArg(), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	txn, err := wallet.PostInTx(ctx, repo, tx, wallet.Entry{
		BorrowerID: 7,
		Type:       wallet.TypeTransfer,
		Amount:     decimal.RequireFromString("1250.50"),
		Fee:        decimal.Zero,
		Method:     wallet.MethodBank,
		Reference:  "0123456789",
		Note:       "rent",
		At:         now,
	})
	require.NoError(t, err)
	assert.True(t, txn.BalanceAfter.Equal(balance))
	require.NoError(t, repo.CommitTx(ctx, tx))

	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateBalanceInTxMissingWallet(t *testing.T) {
	ctx, repo, mockPool := setupWalletRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(anyArgs(3)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectRollback()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	err = repo.UpdateBalanceInTx(ctx, tx, &wallet.Wallet{BorrowerID: 9, Balance: decimal.Zero})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, repo.RollbackTx(ctx, tx))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
