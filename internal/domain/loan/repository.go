package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	CreateLoan(ctx context.Context, loan *Loan) error

	GetLoanByID(ctx context.Context, loanID string) (*Loan, error)

	ListLoansByBorrower(ctx context.Context, borrowerID int64) ([]*Loan, error)

	FindLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID string) (*Loan, error)

	UpdateLoanInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
