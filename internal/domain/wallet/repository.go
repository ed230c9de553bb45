package wallet

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	// GetWallet returns apperrors.ErrNotFound when the borrower has never
	// held a balance.
	GetWallet(ctx context.Context, borrowerID int64) (*Wallet, error)

	ListTransactions(ctx context.Context, borrowerID int64, limit int) ([]*Transaction, error)

	// LockWalletInTx creates the wallet if missing and locks its row.
	LockWalletInTx(ctx context.Context, tx pgx.Tx, borrowerID int64) (*Wallet, error)

	UpdateBalanceInTx(ctx context.Context, tx pgx.Tx, w *Wallet) error

	InsertTransactionInTx(ctx context.Context, tx pgx.Tx, t *Transaction) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
