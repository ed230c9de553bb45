package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"lora-lending/internal/domain/lender"
	"lora-lending/internal/domain/wallet"
	"lora-lending/internal/event"
	"lora-lending/internal/infrastructure/monitoring"
	"lora-lending/internal/pkg/apperrors"
	"lora-lending/internal/pkg/money"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Quote is the price of a request at one lender. Amortization and Schedule
// are nil when the request falls outside the lender's terms.
type Quote struct {
	Lender       *lender.Policy
	Validation   *ValidationResult
	Amortization *Amortization
	Schedule     []ScheduleEntry
}

func (q *Quote) Eligible() bool {
	return q.Validation.Valid()
}

type LoanService interface {
	Quote(ctx context.Context, lenderID int64, amount decimal.Decimal, termMonths int) (*Quote, error)

	QuoteAll(ctx context.Context, amount decimal.Decimal, termMonths int) ([]*Quote, error)

	Submit(ctx context.Context, borrowerID, lenderID int64, req LoanRequest) (*Loan, error)

	Approve(ctx context.Context, loanID string, approvedAt time.Time) (*Loan, error)

	GetLoan(ctx context.Context, loanID string) (*Loan, error)

	ListBorrowerLoans(ctx context.Context, borrowerID int64) ([]*Loan, error)

	GetBilling(ctx context.Context, loanID string) (*BillingBreakdown, error)

	GetSchedule(ctx context.Context, loanID string) ([]ScheduleEntry, error)

	Pay(ctx context.Context, loanID string, method wallet.Method) (*wallet.Transaction, error)
}

type loanServiceImpl struct {
	repo          Repository
	walletRepo    wallet.Repository
	lenderService lender.LenderService
	publisher     event.EventPublisher
	logger        *slog.Logger
	now           func() time.Time
}

func NewLoanService(r Repository, wr wallet.Repository, ls lender.LenderService, p event.EventPublisher, logger *slog.Logger) LoanService {
	return &loanServiceImpl{
		repo:          r,
		walletRepo:    wr,
		lenderService: ls,
		publisher:     p,
		logger:        logger.With(slog.String("component", "loanService")),
		now:           time.Now,
	}
}

func (s *loanServiceImpl) Quote(ctx context.Context, lenderID int64, amount decimal.Decimal, termMonths int) (*Quote, error) {
	policy, err := s.lenderService.GetLender(ctx, lenderID)
	if err != nil {
		return nil, err
	}
	q, err := s.quote(policy, amount, termMonths)
	if err != nil {
		return nil, err
	}
	if !q.Eligible() {
		return q, q.Validation.Err()
	}
	return q, nil
}

func (s *loanServiceImpl) QuoteAll(ctx context.Context, amount decimal.Decimal, termMonths int) ([]*Quote, error) {
	policies, err := s.lenderService.ListLenders(ctx)
	if err != nil {
		return nil, err
	}
	quotes := make([]*Quote, 0, len(policies))
	for _, p := range policies {
		q, err := s.quote(p, amount, termMonths)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping lender that could not be quoted", "lenderID", p.ID, "error", err)
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func (s *loanServiceImpl) quote(policy *lender.Policy, amount decimal.Decimal, termMonths int) (*Quote, error) {
	q := &Quote{Lender: policy, Validation: Validate(amount, termMonths, policy)}
	if !q.Eligible() {
		for _, fe := range q.Validation.Errors {
			monitoring.RecordQuote(string(policy.InterestType), codeOf(fe))
		}
		return q, nil
	}

	a, err := ComputeAmortization(amount, termMonths, policy)
	if err != nil {
		return nil, err
	}
	schedule, err := GenerateSchedule(a, s.now())
	if err != nil {
		return nil, err
	}
	q.Amortization = a
	q.Schedule = schedule
	monitoring.RecordQuote(string(policy.InterestType), "ok")
	return q, nil
}

func (s *loanServiceImpl) Submit(ctx context.Context, borrowerID, lenderID int64, req LoanRequest) (*Loan, error) {
	s.logger.InfoContext(ctx, "Submitting loan application", "borrowerID", borrowerID, "lenderID", lenderID)
	if borrowerID <= 0 {
		return nil, fmt.Errorf("%w: borrower ID must be positive", apperrors.ErrInvalidArgument)
	}

	policy, err := s.lenderService.GetLender(ctx, lenderID)
	if err != nil {
		return nil, err
	}

	if res := ValidateRequest(req, policy); !res.Valid() {
		s.logger.InfoContext(ctx, "Loan application rejected by validation", "borrowerID", borrowerID, "fields", len(res.Errors))
		monitoring.RecordApplication("rejected")
		return nil, res.Err()
	}

	a, err := ComputeAmortization(req.Principal, req.TermMonths, policy)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to compute amortization", "error", err)
		return nil, err
	}

	l, err := NewLoan(borrowerID, policy, req, a, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateLoan(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan application", "loanID", l.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to save loan application: %v", apperrors.ErrInternalServer, err)
	}
	monitoring.RecordApplication(string(StatusProcessing))

	s.publish(ctx, event.RoutingKeyLoanSubmitted, event.LoanEvent{
		LoanID:     l.ID,
		BorrowerID: l.BorrowerID,
		LenderID:   l.LenderID,
		Status:     string(l.Status),
		Amount:     money.RoundCents(l.Principal).StringFixed(2),
		Timestamp:  l.SubmittedAt,
	})
	s.logger.InfoContext(ctx, "Loan application submitted", "loanID", l.ID, "borrowerID", borrowerID)
	return l, nil
}

func (s *loanServiceImpl) Approve(ctx context.Context, loanID string, approvedAt time.Time) (l *Loan, err error) {
	if approvedAt.IsZero() {
		approvedAt = s.now()
	}
	s.logger.InfoContext(ctx, "Approving loan", "loanID", loanID)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}
	defer func() {
		if p := recover(); p != nil {
			s.logger.ErrorContext(ctx, "Panic occurred during approval", "loanID", loanID, "error", p)
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	l, err = s.findForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}
	if err = l.Approve(approvedAt); err != nil {
		s.logger.WarnContext(ctx, "Loan cannot be approved", "loanID", loanID, "status", l.Status)
		return nil, err
	}
	if err = s.repo.UpdateLoanInTx(ctx, tx, l); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: could not update loan: %v", apperrors.ErrInternalServer, err)
	}

	release := money.RoundCents(l.NetRelease)
	if release.IsPositive() {
		_, err = wallet.PostInTx(ctx, s.walletRepo, tx, wallet.Entry{
			BorrowerID: l.BorrowerID,
			Type:       wallet.TypeDisbursement,
			Amount:     release,
			Method:     wallet.MethodDisbursement,
			Reference:  l.ID,
			At:         approvedAt,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to disburse loan", "loanID", loanID, "error", err)
			return nil, err
		}
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}
	monitoring.RecordApplication(string(StatusActive))

	s.publish(ctx, event.RoutingKeyLoanApproved, event.LoanEvent{
		LoanID:     l.ID,
		BorrowerID: l.BorrowerID,
		LenderID:   l.LenderID,
		Status:     string(l.Status),
		Amount:     release.StringFixed(2),
		DueDate:    l.DueDate.Format(time.DateOnly),
		Timestamp:  approvedAt,
	})
	s.logger.InfoContext(ctx, "Loan approved", "loanID", l.ID, "netRelease", release.StringFixed(2))
	return l, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID string) (*Loan, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %s not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get loan %s: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return l, nil
}

func (s *loanServiceImpl) ListBorrowerLoans(ctx context.Context, borrowerID int64) ([]*Loan, error) {
	if borrowerID <= 0 {
		return nil, fmt.Errorf("%w: borrower ID must be positive", apperrors.ErrInvalidArgument)
	}
	loans, err := s.repo.ListLoansByBorrower(ctx, borrowerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", "borrowerID", borrowerID, "error", err)
		return nil, fmt.Errorf("%w: failed to list loans for borrower %d: %v", apperrors.ErrInternalServer, borrowerID, err)
	}
	return loans, nil
}

func (s *loanServiceImpl) GetBilling(ctx context.Context, loanID string) (*BillingBreakdown, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	b, err := l.Billing()
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored loan cannot be billed", "loanID", loanID, "status", l.Status, "error", err)
		return nil, err
	}
	return b, nil
}

// GetSchedule returns the installment plan of an approved loan. Applications
// still processing have no dates to schedule against.
func (s *loanServiceImpl) GetSchedule(ctx context.Context, loanID string) ([]ScheduleEntry, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.Status == StatusProcessing || l.ApprovedAt == nil {
		return nil, fmt.Errorf("%w: loan %s has no schedule yet", apperrors.ErrLoanProcessing, loanID)
	}
	return GenerateSchedule(l.Amortization(), *l.ApprovedAt)
}

// Pay settles an Active loan in full. Wallet payments need a balance that
// covers the whole amount due.
func (s *loanServiceImpl) Pay(ctx context.Context, loanID string, method wallet.Method) (txn *wallet.Transaction, err error) {
	switch method {
	case wallet.MethodWallet, wallet.MethodGCash, wallet.MethodBank, wallet.MethodCard:
	default:
		return nil, apperrors.NewValidationError("method", "Payment method not available")
	}
	s.logger.InfoContext(ctx, "Making payment", "loanID", loanID, "method", method)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}

	defer func() {
		status := "success"
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrLoanProcessing):
			status = "failure_processing"
		case errors.Is(err, apperrors.ErrLoanFullyPaid):
			status = "failure_fully_paid"
		case errors.Is(err, apperrors.ErrInsufficientBalance):
			status = "failure_balance"
		default:
			status = "failure_internal"
		}
		monitoring.RecordPayment(string(method), status)
		if p := recover(); p != nil {
			s.logger.ErrorContext(ctx, "Panic occurred during payment processing", "loanID", loanID, "error", p)
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			s.logger.WarnContext(ctx, "Rolling back payment", "loanID", loanID, "error", err)
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	l, err := s.findForUpdate(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	billing, err := l.Billing()
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err = l.Complete(now); err != nil {
		return nil, err
	}
	due, _ := billing.AmountDue()
	due = money.RoundCents(due)

	txn, err = wallet.PostInTx(ctx, s.walletRepo, tx, wallet.Entry{
		BorrowerID: l.BorrowerID,
		Type:       wallet.TypePayment,
		Amount:     due,
		Method:     method,
		Reference:  l.ID,
		At:         now,
	})
	if err != nil {
		return nil, err
	}

	if err = s.repo.UpdateLoanInTx(ctx, tx, l); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update loan status to completed", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: could not update loan status to completed: %v", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}

	s.publish(ctx, event.RoutingKeyLoanCompleted, event.LoanEvent{
		LoanID:     l.ID,
		BorrowerID: l.BorrowerID,
		LenderID:   l.LenderID,
		Status:     string(l.Status),
		Amount:     due.StringFixed(2),
		Method:     string(method),
		Timestamp:  now,
	})
	s.logger.InfoContext(ctx, "Payment processed successfully", "loanID", loanID, "amount", due.StringFixed(2))
	return txn, nil
}

func (s *loanServiceImpl) findForUpdate(ctx context.Context, tx pgx.Tx, loanID string) (*Loan, error) {
	l, err := s.repo.FindLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %s not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to lock loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: could not lock loan %s: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return l, nil
}

// publish is best effort. The loan change is already committed.
func (s *loanServiceImpl) publish(ctx context.Context, routingKey string, e event.LoanEvent) {
	if s.publisher == nil {
		return
	}
	var err error
	switch routingKey {
	case event.RoutingKeyLoanSubmitted:
		err = s.publisher.PublishLoanSubmitted(ctx, e)
	case event.RoutingKeyLoanApproved:
		err = s.publisher.PublishLoanApproved(ctx, e)
	case event.RoutingKeyLoanCompleted:
		err = s.publisher.PublishLoanCompleted(ctx, e)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish loan event", "routingKey", routingKey, "loanID", e.LoanID, "error", err)
	}
}

func codeOf(fe *apperrors.ValidationError) string {
	switch {
	case errors.Is(fe, apperrors.ErrAmountBelowMinimum):
		return "amount_below_minimum"
	case errors.Is(fe, apperrors.ErrAmountAboveMaximum):
		return "amount_above_maximum"
	case errors.Is(fe, apperrors.ErrTermBelowMinimum):
		return "term_below_minimum"
	case errors.Is(fe, apperrors.ErrTermAboveMaximum):
		return "term_above_maximum"
	case errors.Is(fe, apperrors.ErrInvalidTerm):
		return "invalid_term"
	default:
		return "invalid_amount"
	}
}
