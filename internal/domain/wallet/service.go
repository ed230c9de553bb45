package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"lora-lending/internal/infrastructure/monitoring"
	"lora-lending/internal/pkg/apperrors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	DefaultTransactionLimit = 50

	MinAccountNumberLength = 10
	MaxTransferNoteLength  = 140
)

type WalletService interface {
	GetWallet(ctx context.Context, borrowerID int64) (*Wallet, error)

	CashIn(ctx context.Context, borrowerID int64, amount decimal.Decimal, method Method) (*Transaction, error)

	// Transfer sends amount from the wallet to an external account number.
	Transfer(ctx context.Context, borrowerID int64, amount decimal.Decimal, accountNumber, note string) (*Transaction, error)

	ListTransactions(ctx context.Context, borrowerID int64, limit int) ([]*Transaction, error)
}

type walletServiceImpl struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewWalletService(r Repository, logger *slog.Logger) WalletService {
	return &walletServiceImpl{
		repo:   r,
		logger: logger.With(slog.String("component", "walletService")),
		now:    time.Now,
	}
}

func (s *walletServiceImpl) GetWallet(ctx context.Context, borrowerID int64) (*Wallet, error) {
	if borrowerID <= 0 {
		return nil, fmt.Errorf("%w: borrower ID must be positive", apperrors.ErrInvalidArgument)
	}
	w, err := s.repo.GetWallet(ctx, borrowerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &Wallet{BorrowerID: borrowerID, Balance: decimal.Zero}, nil
		}
		s.logger.ErrorContext(ctx, "Failed to get wallet", "borrowerID", borrowerID, "error", err)
		return nil, fmt.Errorf("%w: failed to get wallet for borrower %d: %v", apperrors.ErrInternalServer, borrowerID, err)
	}
	return w, nil
}

func (s *walletServiceImpl) CashIn(ctx context.Context, borrowerID int64, amount decimal.Decimal, method Method) (*Transaction, error) {
	if borrowerID <= 0 {
		return nil, fmt.Errorf("%w: borrower ID must be positive", apperrors.ErrInvalidArgument)
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("amount", "Please enter a valid amount")
	}
	switch method {
	case MethodBank, MethodCard, MethodOverCounter, MethodEWallet:
	default:
		return nil, apperrors.NewValidationError("method", "Please select a method and enter amount")
	}
	fee := CashInFee(method, amount)
	if !amount.GreaterThan(fee) {
		return nil, apperrors.NewValidationError("amount", fmt.Sprintf("Amount must exceed the %s fee", fee.StringFixed(2)))
	}

	s.logger.InfoContext(ctx, "Cashing in", "borrowerID", borrowerID, "amount", amount.String(), "method", method)
	txn, err := s.post(ctx, Entry{
		BorrowerID: borrowerID,
		Type:       TypeCashIn,
		Amount:     amount,
		Fee:        fee,
		Method:     method,
		At:         s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Cash in completed", "borrowerID", borrowerID, "transactionID", txn.ID)
	return txn, nil
}

func (s *walletServiceImpl) Transfer(ctx context.Context, borrowerID int64, amount decimal.Decimal, accountNumber, note string) (*Transaction, error) {
	if borrowerID <= 0 {
		return nil, fmt.Errorf("%w: borrower ID must be positive", apperrors.ErrInvalidArgument)
	}
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" {
		return nil, apperrors.NewValidationError("accountNumber", "Please enter amount and account number")
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("amount", "Amount must be greater than 0")
	}
	if len(accountNumber) < MinAccountNumberLength || strings.IndexFunc(accountNumber, notDigit) >= 0 {
		return nil, apperrors.NewValidationError("accountNumber", fmt.Sprintf("Account number must be at least %d digits", MinAccountNumberLength))
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxTransferNoteLength {
		return nil, apperrors.NewValidationError("note", fmt.Sprintf("Note must be at most %d characters", MaxTransferNoteLength))
	}

	s.logger.InfoContext(ctx, "Transferring", "borrowerID", borrowerID, "amount", amount.String(), "account", maskAccount(accountNumber))
	txn, err := s.post(ctx, Entry{
		BorrowerID: borrowerID,
		Type:       TypeTransfer,
		Amount:     amount,
		Fee:        decimal.Zero,
		Method:     MethodBank,
		Reference:  accountNumber,
		Note:       note,
		At:         s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Transfer completed", "borrowerID", borrowerID, "transactionID", txn.ID)
	return txn, nil
}

// post applies e in its own database transaction.
func (s *walletServiceImpl) post(ctx context.Context, e Entry) (txn *Transaction, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
			_ = s.repo.RollbackTx(ctx, tx)
		}
		monitoring.RecordWalletTransaction(string(e.Type), status)
	}()

	txn, err = PostInTx(ctx, s.repo, tx, e)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to post wallet transaction", "borrowerID", e.BorrowerID, "type", e.Type, "error", err)
		return nil, err
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "borrowerID", e.BorrowerID, "error", err)
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}
	return txn, nil
}

func notDigit(r rune) bool { return r < '0' || r > '9' }

func maskAccount(n string) string {
	if len(n) <= 4 {
		return n
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}

func (s *walletServiceImpl) ListTransactions(ctx context.Context, borrowerID int64, limit int) ([]*Transaction, error) {
	if borrowerID <= 0 {
		return nil, fmt.Errorf("%w: borrower ID must be positive", apperrors.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	txns, err := s.repo.ListTransactions(ctx, borrowerID, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list transactions", "borrowerID", borrowerID, "error", err)
		return nil, fmt.Errorf("%w: failed to list transactions for borrower %d: %v", apperrors.ErrInternalServer, borrowerID, err)
	}
	return txns, nil
}

// Entry describes a ledger line to post.
type Entry struct {
	BorrowerID int64
	Type       TransactionType
	Amount     decimal.Decimal
	Fee        decimal.Decimal
	Method     Method
	Reference  string
	Note       string
	At         time.Time
}

// PostInTx locks the borrower's wallet, applies e to the balance and records
// the transaction, all inside tx. Payments settled outside the wallet are
// recorded without touching the balance.
func PostInTx(ctx context.Context, repo Repository, tx pgx.Tx, e Entry) (*Transaction, error) {
	if !e.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: transaction amount must be positive", apperrors.ErrInvalidArgument)
	}

	w, err := repo.LockWalletInTx(ctx, tx, e.BorrowerID)
	if err != nil {
		return nil, fmt.Errorf("%w: could not lock wallet for borrower %d: %v", apperrors.ErrInternalServer, e.BorrowerID, err)
	}

	changed := true
	switch e.Type {
	case TypeCashIn, TypeDisbursement:
		w.Credit(e.Amount.Sub(e.Fee), e.At)
	case TypeTransfer:
		if err := w.Debit(e.Amount, e.At); err != nil {
			return nil, err
		}
	case TypePayment:
		if e.Method != MethodWallet {
			changed = false
			break
		}
		if err := w.Debit(e.Amount, e.At); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrInvalidArgument, e.Type)
	}

	if changed {
		if err := repo.UpdateBalanceInTx(ctx, tx, w); err != nil {
			return nil, fmt.Errorf("%w: could not update wallet balance: %v", apperrors.ErrInternalServer, err)
		}
	}

	txn := &Transaction{
		ID:           uuid.New(),
		BorrowerID:   e.BorrowerID,
		Type:         e.Type,
		Amount:       e.Amount,
		Fee:          e.Fee,
		Method:       e.Method,
		Reference:    e.Reference,
		Note:         e.Note,
		BalanceAfter: w.Balance,
		CreatedAt:    e.At,
	}
	if err := repo.InsertTransactionInTx(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("%w: could not record transaction: %v", apperrors.ErrInternalServer, err)
	}
	return txn, nil
}
