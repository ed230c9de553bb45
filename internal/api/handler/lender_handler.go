package handler

import (
	"log/slog"
	"lora-lending/internal/api/handler/dto"
	"lora-lending/internal/domain/lender"
	"net/http"
)

type LenderHandler struct {
	service lender.LenderService
	logger  *slog.Logger
}

func NewLenderHandler(s lender.LenderService, l *slog.Logger) *LenderHandler {
	return &LenderHandler{
		service: s,
		logger:  l.With("component", "LenderHandler"),
	}
}

// ListLenders returns the lender catalog.
//
// @Summary List lenders
// @Description Returns every lender policy in the catalog with its rate, amount and term bounds.
// @Tags Lenders
// @Produce json
// @Success 200 {array} dto.LenderResponse "Lender catalog"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /lenders [get]
// @Security BearerAuth
func (h *LenderHandler) ListLenders(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.ListLenders(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLenderListResponse(policies))
}

// GetLender returns a single lender policy.
//
// @Summary Retrieve a lender
// @Tags Lenders
// @Produce json
// @Param lenderID path int true "Lender ID"
// @Success 200 {object} dto.LenderResponse "Lender policy"
// @Failure 400 {object} dto.ErrorResponse "Invalid lender ID"
// @Failure 404 {object} dto.ErrorResponse "Lender not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /lenders/{lenderID} [get]
// @Security BearerAuth
func (h *LenderHandler) GetLender(w http.ResponseWriter, r *http.Request) {
	lenderID, err := getInt64Param(r, "lenderID")
	if err != nil {
		respondError(w, err)
		return
	}
	p, err := h.service.GetLender(r.Context(), lenderID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLenderResponse(p))
}
