package handler

import (
	"fmt"
	"log/slog"
	"lora-lending/internal/api/handler/dto"
	"lora-lending/internal/api/middleware"
	"lora-lending/internal/domain/loan"
	"lora-lending/internal/domain/wallet"
	"lora-lending/internal/pkg/apperrors"
	"net/http"
	"time"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
	now     func() time.Time
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
		now:     time.Now,
	}
}

// SubmitLoan files a loan application for a borrower.
//
// @Summary Submit a loan application
// @Description Validates the application against the chosen lender and stores it as Processing. Every failing field is reported together.
// @Tags Loans
// @Accept json
// @Produce json
// @Param borrowerID path int true "Borrower ID"
// @Param request body dto.SubmitLoanRequest true "Loan application"
// @Success 201 {object} dto.LoanResponse "Application submitted"
// @Failure 400 {object} dto.ErrorResponse "Malformed request"
// @Failure 404 {object} dto.ErrorResponse "Lender not found"
// @Failure 422 {object} dto.ErrorResponse "Application failed validation"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers/{borrowerID}/loans [post]
// @Security BearerAuth
func (h *LoanHandler) SubmitLoan(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := getInt64Param(r, "borrowerID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.SubmitLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}
	loanReq, err := req.ToDomain()
	if err != nil {
		respondError(w, err)
		return
	}

	l, err := h.service.Submit(r.Context(), borrowerID, req.LenderID, loanReq)
	if err != nil {
		respondError(w, err)
		return
	}
	subject, _ := middleware.SubjectFromContext(r.Context())
	h.logger.InfoContext(r.Context(), "Loan application submitted", "loanID", l.ID, "borrowerID", borrowerID, "subject", subject)
	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(l))
}

// ListBorrowerLoans returns a borrower's loans, newest first.
//
// @Summary List a borrower's loans
// @Tags Loans
// @Produce json
// @Param borrowerID path int true "Borrower ID"
// @Success 200 {array} dto.LoanResponse "Loans with their billing breakdown"
// @Failure 400 {object} dto.ErrorResponse "Invalid borrower ID"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers/{borrowerID}/loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListBorrowerLoans(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := getInt64Param(r, "borrowerID")
	if err != nil {
		respondError(w, err)
		return
	}
	loans, err := h.service.ListBorrowerLoans(r.Context(), borrowerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

// GetLoan retrieves one loan record.
//
// @Summary Retrieve loan details
// @Tags Loans
// @Produce json
// @Param loanID path string true "Application ID"
// @Success 200 {object} dto.LoanResponse "Loan details"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	l, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l))
}

// GetBilling returns the current billing breakdown.
//
// @Summary Retrieve billing breakdown
// @Description Amounts that are not determined yet are shown as "TBD" and an unset due date as "To be determined".
// @Tags Loans
// @Produce json
// @Param loanID path string true "Application ID"
// @Success 200 {object} dto.BillingResponse "Billing breakdown"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/billing [get]
// @Security BearerAuth
func (h *LoanHandler) GetBilling(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	b, err := h.service.GetBilling(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBillingResponse(b))
}

// GetSchedule returns the installment plan of an approved loan.
//
// @Summary Retrieve repayment schedule
// @Tags Loans
// @Produce json
// @Param loanID path string true "Application ID"
// @Success 200 {array} dto.ScheduleEntryResponse "Installments"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan is still processing"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/schedule [get]
// @Security BearerAuth
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	entries, err := h.service.GetSchedule(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewScheduleResponse(entries))
}

// ApproveLoan moves a Processing application to Active and disburses the net
// release into the borrower's wallet.
//
// @Summary Approve a loan application
// @Tags Loans
// @Produce json
// @Param loanID path string true "Application ID"
// @Success 200 {object} dto.LoanResponse "Approved loan"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan is not Processing"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/approve [post]
// @Security BearerAuth
func (h *LoanHandler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	l, err := h.service.Approve(r.Context(), loanID, h.now().UTC())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l))
}

// PayLoan settles the full amount due.
//
// @Summary Pay a loan in full
// @Description Paying with WALLET debits the borrower's balance. Other methods are recorded without touching the balance.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path string true "Application ID"
// @Param request body dto.PaymentRequest true "Payment method"
// @Success 200 {object} dto.TransactionResponse "Payment recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid payment method"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan is processing or already paid"
// @Failure 422 {object} dto.ErrorResponse "Insufficient wallet balance"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/payments [post]
// @Security BearerAuth
func (h *LoanHandler) PayLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}
	method, err := wallet.ParseMethod(req.Method)
	if err != nil {
		respondError(w, err)
		return
	}

	txn, err := h.service.Pay(r.Context(), loanID, method)
	if err != nil {
		respondError(w, err)
		return
	}
	subject, _ := middleware.SubjectFromContext(r.Context())
	h.logger.InfoContext(r.Context(), "Loan paid", "loanID", loanID, "method", method, "subject", subject)
	respondJSON(w, http.StatusOK, dto.NewTransactionResponse(txn))
}
