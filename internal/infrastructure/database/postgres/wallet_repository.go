package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"lora-lending/internal/domain/wallet"
	"lora-lending/internal/infrastructure/monitoring"
	"lora-lending/internal/pkg/apperrors"
	"time"

	"github.com/jackc/pgx/v5"
)

type WalletRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ wallet.Repository = (*WalletRepository)(nil)

func NewWalletRepository(db DBPool, logger *slog.Logger) *WalletRepository {
	return &WalletRepository{db: db, logger: logger.With("component", "WalletRepository")}
}

func (r *WalletRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.db, r.logger)
}

func (r *WalletRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return commitTx(ctx, tx, r.logger)
}

func (r *WalletRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return rollbackTx(ctx, tx, r.logger)
}

func (r *WalletRepository) GetWallet(ctx context.Context, borrowerID int64) (*wallet.Wallet, error) {
	query := `SELECT borrower_id, balance, created_at, updated_at FROM wallets WHERE borrower_id = $1`

	startTime := time.Now()
	var w wallet.Wallet
	err := r.db.QueryRow(ctx, query, borrowerID).Scan(&w.BorrowerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	status := "success"
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetWallet", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get wallet", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &w, nil
}

func (r *WalletRepository) ListTransactions(ctx context.Context, borrowerID int64, limit int) ([]*wallet.Transaction, error) {
	query := `
        SELECT id, borrower_id, type, amount, fee, method, reference, note, balance_after, created_at
        FROM wallet_transactions
        WHERE borrower_id = $1
        ORDER BY created_at DESC
        LIMIT $2`

	rows, err := r.db.Query(ctx, query, borrowerID, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query wallet transactions", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	txns := make([]*wallet.Transaction, 0)
	for rows.Next() {
		var t wallet.Transaction
		var txType, method string
		if err := rows.Scan(&t.ID, &t.BorrowerID, &txType, &t.Amount, &t.Fee, &method, &t.Reference, &t.Note, &t.BalanceAfter, &t.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan wallet transaction", "borrower_id", borrowerID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		t.Type = wallet.TransactionType(txType)
		t.Method = wallet.Method(method)
		txns = append(txns, &t)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating wallet transactions", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return txns, nil
}

func (r *WalletRepository) LockWalletInTx(ctx context.Context, tx pgx.Tx, borrowerID int64) (*wallet.Wallet, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO wallets (borrower_id) VALUES ($1) ON CONFLICT (borrower_id) DO NOTHING`, borrowerID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to ensure wallet exists", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	query := `SELECT borrower_id, balance, created_at, updated_at FROM wallets WHERE borrower_id = $1 FOR UPDATE`
	var w wallet.Wallet
	if err := tx.QueryRow(ctx, query, borrowerID).Scan(&w.BorrowerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
		r.logger.ErrorContext(ctx, "Failed to lock wallet", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &w, nil
}

func (r *WalletRepository) UpdateBalanceInTx(ctx context.Context, tx pgx.Tx, w *wallet.Wallet) error {
	query := `UPDATE wallets SET balance = $1, updated_at = $2 WHERE borrower_id = $3`

	cmdTag, err := tx.Exec(ctx, query, w.Balance, w.UpdatedAt, w.BorrowerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update wallet balance", "borrower_id", w.BorrowerID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: wallet for borrower %d", apperrors.ErrNotFound, w.BorrowerID)
	}
	return nil
}

func (r *WalletRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, t *wallet.Transaction) error {
	query := `
        INSERT INTO wallet_transactions (id, borrower_id, type, amount, fee, method, reference, note, balance_after, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query, t.ID, t.BorrowerID, string(t.Type), t.Amount, t.Fee, string(t.Method), t.Reference, t.Note, t.BalanceAfter, t.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert wallet transaction", "borrower_id", t.BorrowerID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}
