package dto

import (
	"lora-lending/internal/domain/wallet"
	"lora-lending/internal/pkg/apperrors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type WalletResponse struct {
	BorrowerID int64  `json:"borrowerId"`
	Balance    string `json:"balance"`
}

func NewWalletResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{BorrowerID: w.BorrowerID, Balance: formatMoney(w.Balance)}
}

type CashInRequest struct {
	Amount string `json:"amount" validate:"required" example:"1000"`
	Method string `json:"method" validate:"required" example:"CARD"`
}

func (r *CashInRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if _, err := decimal.NewFromString(r.Amount); err != nil {
		return errInvalidAmount
	}
	return nil
}

// Parsed assumes Validate has passed.
func (r *CashInRequest) Parsed() (decimal.Decimal, wallet.Method, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return decimal.Zero, "", errInvalidAmount
	}
	method, err := wallet.ParseMethod(r.Method)
	if err != nil {
		return decimal.Zero, "", err
	}
	return amount, method, nil
}

// TransferRequest sends wallet funds to an external account. Amount may
// carry thousands separators. Confirm must be true.
type TransferRequest struct {
	Amount        string `json:"amount" example:"1,250.50"`
	AccountNumber string `json:"accountNumber" example:"0123456789"`
	Note          string `json:"note,omitempty" example:"Rent"`
	Confirm       bool   `json:"confirm" example:"true"`
}

func (r *TransferRequest) Parsed() (decimal.Decimal, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(r.Amount), ",", "")
	if raw == "" || strings.TrimSpace(r.AccountNumber) == "" {
		return decimal.Zero, apperrors.NewValidationError("amount", "Please enter amount and account number")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError("amount", "Please enter a valid amount")
	}
	if !r.Confirm {
		return decimal.Zero, apperrors.NewValidationError("confirm", "Please confirm the transfer")
	}
	return amount, nil
}

type TransactionResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	Amount       string    `json:"amount"`
	Fee          string    `json:"fee"`
	Method       string    `json:"method"`
	Reference    string    `json:"reference,omitempty"`
	Note         string    `json:"note,omitempty"`
	BalanceAfter string    `json:"balanceAfter"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewTransactionResponse(t *wallet.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID.String(),
		Title:        t.Type.Title(),
		Type:         string(t.Type),
		Amount:       formatMoney(t.Amount),
		Fee:          formatMoney(t.Fee),
		Method:       string(t.Method),
		Reference:    t.Reference,
		Note:         t.Note,
		BalanceAfter: formatMoney(t.BalanceAfter),
		CreatedAt:    t.CreatedAt,
	}
}

func NewTransactionListResponse(txns []*wallet.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		out[i] = NewTransactionResponse(t)
	}
	return out
}
