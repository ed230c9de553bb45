package wallet

import (
	"fmt"
	"lora-lending/internal/pkg/apperrors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Wallet struct {
	BorrowerID int64
	Balance    decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (w *Wallet) Credit(amount decimal.Decimal, at time.Time) {
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = at
}

func (w *Wallet) Debit(amount decimal.Decimal, at time.Time) error {
	if w.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s is less than %s", apperrors.ErrInsufficientBalance,
			w.Balance.StringFixed(2), amount.StringFixed(2))
	}
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = at
	return nil
}

// CanCover reports whether the balance pays amount in full.
func (w *Wallet) CanCover(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

type TransactionType string

const (
	TypeCashIn       TransactionType = "CASH_IN"
	TypeDisbursement TransactionType = "DISBURSEMENT"
	TypePayment      TransactionType = "PAYMENT"
	TypeTransfer     TransactionType = "TRANSFER"
)

// Title is the label shown in the transaction history.
func (t TransactionType) Title() string {
	switch t {
	case TypeCashIn:
		return "Cash In"
	case TypeDisbursement:
		return "Loan Disbursement"
	case TypePayment:
		return "Payment"
	case TypeTransfer:
		return "Transfer"
	}
	return string(t)
}

type Method string

const (
	MethodWallet       Method = "WALLET"
	MethodGCash        Method = "GCASH"
	MethodBank         Method = "BANK"
	MethodCard         Method = "CARD"
	MethodOverCounter  Method = "OTC"
	MethodEWallet      Method = "E_WALLET"
	MethodDisbursement Method = "DISBURSEMENT"
)

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case MethodWallet, MethodGCash, MethodBank, MethodCard, MethodOverCounter, MethodEWallet:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", apperrors.ErrInvalidArgument, s)
}

var (
	cardFeeRate = decimal.RequireFromString("0.02")
	counterFee  = decimal.RequireFromString("15.00")
)

// CashInFee is the charge for topping up amount through m: 2% by card,
// a flat 15.00 over the counter, free otherwise.
func CashInFee(m Method, amount decimal.Decimal) decimal.Decimal {
	switch m {
	case MethodCard:
		return amount.Mul(cardFeeRate).Round(2)
	case MethodOverCounter:
		return counterFee
	}
	return decimal.Zero
}

// Transaction is one ledger line. Amount is always positive; Type decides the
// direction. BalanceAfter equals the balance before for payments settled
// outside the wallet. Transfers carry the destination account in Reference.
type Transaction struct {
	ID           uuid.UUID
	BorrowerID   int64
	Type         TransactionType
	Amount       decimal.Decimal
	Fee          decimal.Decimal
	Method       Method
	Reference    string
	Note         string
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}
