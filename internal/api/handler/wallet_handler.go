package handler

import (
	"fmt"
	"log/slog"
	"lora-lending/internal/api/handler/dto"
	"lora-lending/internal/domain/wallet"
	"lora-lending/internal/pkg/apperrors"
	"net/http"
	"strconv"
)

const maxTransactionLimit = 200

type WalletHandler struct {
	service wallet.WalletService
	logger  *slog.Logger
}

func NewWalletHandler(s wallet.WalletService, l *slog.Logger) *WalletHandler {
	return &WalletHandler{
		service: s,
		logger:  l.With("component", "WalletHandler"),
	}
}

// GetWallet returns the borrower's balance.
//
// @Summary Retrieve wallet balance
// @Tags Wallet
// @Produce json
// @Param borrowerID path int true "Borrower ID"
// @Success 200 {object} dto.WalletResponse "Wallet balance"
// @Failure 400 {object} dto.ErrorResponse "Invalid borrower ID"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers/{borrowerID}/wallet [get]
// @Security BearerAuth
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := getInt64Param(r, "borrowerID")
	if err != nil {
		respondError(w, err)
		return
	}
	wl, err := h.service.GetWallet(r.Context(), borrowerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewWalletResponse(wl))
}

// CashIn tops up the wallet. Card top-ups carry a 2% fee and over-the-counter
// top-ups a flat 15.00.
//
// @Summary Cash in to wallet
// @Tags Wallet
// @Accept json
// @Produce json
// @Param borrowerID path int true "Borrower ID"
// @Param request body dto.CashInRequest true "Amount and method"
// @Success 201 {object} dto.TransactionResponse "Cash-in recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount or method"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers/{borrowerID}/wallet/cash-in [post]
// @Security BearerAuth
func (h *WalletHandler) CashIn(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := getInt64Param(r, "borrowerID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.CashInRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}
	amount, method, err := req.Parsed()
	if err != nil {
		respondError(w, err)
		return
	}

	txn, err := h.service.CashIn(r.Context(), borrowerID, amount, method)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewTransactionResponse(txn))
}

// Transfer sends wallet funds to an external account.
//
// @Summary Transfer from wallet
// @Tags Wallet
// @Accept json
// @Produce json
// @Param borrowerID path int true "Borrower ID"
// @Param request body dto.TransferRequest true "Amount, destination account and confirmation"
// @Success 201 {object} dto.TransactionResponse "Transfer recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount, account number or missing confirmation"
// @Failure 422 {object} dto.ErrorResponse "Insufficient wallet balance"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers/{borrowerID}/wallet/transfers [post]
// @Security BearerAuth
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := getInt64Param(r, "borrowerID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	amount, err := req.Parsed()
	if err != nil {
		respondError(w, err)
		return
	}

	txn, err := h.service.Transfer(r.Context(), borrowerID, amount, req.AccountNumber, req.Note)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Transfer failed", "borrowerID", borrowerID, "error", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewTransactionResponse(txn))
}

// ListTransactions returns the wallet history, newest first.
//
// @Summary List wallet transactions
// @Tags Wallet
// @Produce json
// @Param borrowerID path int true "Borrower ID"
// @Param limit query int false "Maximum entries to return (default 50, max 200)"
// @Success 200 {array} dto.TransactionResponse "Transactions"
// @Failure 400 {object} dto.ErrorResponse "Invalid borrower ID or limit"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers/{borrowerID}/wallet/transactions [get]
// @Security BearerAuth
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := getInt64Param(r, "borrowerID")
	if err != nil {
		respondError(w, err)
		return
	}
	limit := wallet.DefaultTransactionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxTransactionLimit {
			respondError(w, fmt.Errorf("%w: limit must be between 1 and %d", apperrors.ErrInvalidArgument, maxTransactionLimit))
			return
		}
	}

	txns, err := h.service.ListTransactions(r.Context(), borrowerID, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTransactionListResponse(txns))
}
