package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/domain/loan"
	"lora-lending/internal/infrastructure/monitoring"
	"lora-lending/internal/pkg/apperrors"
	"time"

	"github.com/jackc/pgx/v5"
)

const loanColumns = `id, borrower_id, lender_id, lender_name, principal, term_months, purpose, collateral,
        monthly_income, loan_type, interest_type, period_rate, total_interest, total_payment, monthly_payment,
        processing_fee, net_release, status, due_date, submitted_at, approved_at, completed_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.db, r.logger)
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return commitTx(ctx, tx, r.logger)
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return rollbackTx(ctx, tx, r.logger)
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	var purpose, loanType, interestType, status string
	err := row.Scan(
		&l.ID, &l.BorrowerID, &l.LenderID, &l.LenderName, &l.Principal, &l.TermMonths, &purpose, &l.Collateral,
		&l.MonthlyIncome, &loanType, &interestType, &l.PeriodRate, &l.TotalInterest, &l.TotalPayment,
		&l.MonthlyPayment, &l.ProcessingFee, &l.NetRelease, &status, &l.DueDate, &l.SubmittedAt,
		&l.ApprovedAt, &l.CompletedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Purpose = loan.Purpose(purpose)
	l.LoanType = loan.LoanType(loanType)
	l.InterestType = lender.InterestType(interestType)
	l.Status = loan.Status(status)
	return &l, nil
}

func (r *LoanRepository) CreateLoan(ctx context.Context, l *loan.Loan) error {
	query := `
        INSERT INTO loans (` + loanColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	startTime := time.Now()
	_, err := r.db.Exec(ctx, query,
		l.ID, l.BorrowerID, l.LenderID, l.LenderName, l.Principal, l.TermMonths, string(l.Purpose), l.Collateral,
		l.MonthlyIncome, string(l.LoanType), string(l.InterestType), l.PeriodRate, l.TotalInterest, l.TotalPayment,
		l.MonthlyPayment, l.ProcessingFee, l.NetRelease, string(l.Status), l.DueDate, l.SubmittedAt,
		l.ApprovedAt, l.CompletedAt, l.UpdatedAt,
	)
	status := "success"
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("CreateLoan", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "loan_id", l.ID, "error", err)
		return fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", l.ID)
	return nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID string) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	startTime := time.Now()
	status := "success"
	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetLoanByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

func (r *LoanRepository) ListLoansByBorrower(ctx context.Context, borrowerID int64) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower_id = $1 ORDER BY submitted_at DESC`

	rows, err := r.db.Query(ctx, query, borrowerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "borrower_id", borrowerID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) FindLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID string) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`

	l, err := scanLoan(tx.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock loan", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

func (r *LoanRepository) UpdateLoanInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	query := `
        UPDATE loans
        SET status = $1, due_date = $2, approved_at = $3, completed_at = $4, updated_at = $5
        WHERE id = $6`

	cmdTag, err := tx.Exec(ctx, query, string(l.Status), l.DueDate, l.ApprovedAt, l.CompletedAt, l.UpdatedAt, l.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan", "loan_id", l.ID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: loan %s", apperrors.ErrNotFound, l.ID)
	}
	return nil
}
