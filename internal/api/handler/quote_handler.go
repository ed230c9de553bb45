package handler

import (
	"fmt"
	"log/slog"
	"lora-lending/internal/api/handler/dto"
	"lora-lending/internal/domain/loan"
	"lora-lending/internal/pkg/apperrors"
	"net/http"
)

type QuoteHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewQuoteHandler(s loan.LoanService, l *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		service: s,
		logger:  l.With("component", "QuoteHandler"),
	}
}

func (h *QuoteHandler) parseQuote(r *http.Request) (dto.QuoteRequest, error) {
	var req dto.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		return req, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	return req, nil
}

// QuoteLender validates the amount and term against one lender and returns
// the amortization and installment plan.
//
// @Summary Quote a loan with one lender
// @Description Checks amount and term against the lender's bounds. Eligible requests get the amortization and a projected schedule; ineligible ones get every field error.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param lenderID path int true "Lender ID"
// @Param request body dto.QuoteRequest true "Amount and term as entered"
// @Success 200 {object} dto.QuoteResponse "Eligible quote"
// @Failure 400 {object} dto.ErrorResponse "Malformed request"
// @Failure 404 {object} dto.ErrorResponse "Lender not found"
// @Failure 422 {object} dto.ErrorResponse "Amount or term outside lender bounds"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /lenders/{lenderID}/quote [post]
// @Security BearerAuth
func (h *QuoteHandler) QuoteLender(w http.ResponseWriter, r *http.Request) {
	lenderID, err := getInt64Param(r, "lenderID")
	if err != nil {
		respondError(w, err)
		return
	}
	req, err := h.parseQuote(r)
	if err != nil {
		respondError(w, err)
		return
	}
	amount, term, err := req.Parse()
	if err != nil {
		respondError(w, err)
		return
	}

	q, err := h.service.Quote(r.Context(), lenderID, amount, term)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewQuoteResponse(q))
}

// QuoteAll compares every lender for the same amount and term.
//
// @Summary Compare quotes across lenders
// @Description Quotes the amount and term against every lender. Each entry reports eligibility and, when eligible, its amortization.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body dto.QuoteRequest true "Amount and term as entered"
// @Success 200 {array} dto.QuoteResponse "One quote per lender"
// @Failure 400 {object} dto.ErrorResponse "Malformed request"
// @Failure 422 {object} dto.ErrorResponse "Missing or unparseable amount or term"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /quotes [post]
// @Security BearerAuth
func (h *QuoteHandler) QuoteAll(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseQuote(r)
	if err != nil {
		respondError(w, err)
		return
	}
	amount, term, err := req.Parse()
	if err != nil {
		respondError(w, err)
		return
	}

	quotes, err := h.service.QuoteAll(r.Context(), amount, term)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewQuoteListResponse(quotes))
}
