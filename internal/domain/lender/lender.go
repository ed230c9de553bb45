package lender

import (
	"fmt"
	"lora-lending/internal/pkg/apperrors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type InterestType string

const (
	// InterestFlat charges the period rate on the original principal for every
	// period of the term ("straight" interest).
	InterestFlat InterestType = "FLAT"
	// InterestDiminishing charges the period rate on the principal still
	// outstanding at the start of each period.
	InterestDiminishing InterestType = "DIMINISHING"
)

func ParseInterestType(s string) (InterestType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FLAT", "STRAIGHT":
		return InterestFlat, nil
	case "DIMINISHING", "DECLINING":
		return InterestDiminishing, nil
	default:
		return "", fmt.Errorf("%w: unknown interest type %q", apperrors.ErrInvalidArgument, s)
	}
}

func (t InterestType) Valid() bool {
	return t == InterestFlat || t == InterestDiminishing
}

// Policy is a lender's published loan terms.
type Policy struct {
	ID           int64
	Name         string
	InterestType InterestType
	// InterestRate is a fraction per period (0.075 for 7.5%).
	InterestRate       decimal.Decimal
	MinAmount          decimal.Decimal
	MaxAmount          decimal.Decimal
	MinTerm            int
	MaxTerm            int
	ProcessingFee      decimal.Decimal
	Requirements       []string
	PhysicalVisitation bool
	ProcessingTime     string
	Description        string
	Contact            string
	Address            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RatePercent is the period rate as shown to borrowers.
func (p *Policy) RatePercent() decimal.Decimal {
	return p.InterestRate.Mul(decimal.NewFromInt(100))
}

// Check reports catalog data that would make quotes meaningless.
func (p *Policy) Check() error {
	switch {
	case !p.InterestType.Valid():
		return fmt.Errorf("%w: lender %d has invalid interest type %q", apperrors.ErrInvalidInput, p.ID, p.InterestType)
	case p.InterestRate.IsNegative():
		return fmt.Errorf("%w: lender %d has a negative interest rate", apperrors.ErrInvalidInput, p.ID)
	case p.ProcessingFee.IsNegative():
		return fmt.Errorf("%w: lender %d has a negative processing fee", apperrors.ErrInvalidInput, p.ID)
	case p.MinAmount.GreaterThan(p.MaxAmount):
		return fmt.Errorf("%w: lender %d min amount exceeds max amount", apperrors.ErrInvalidInput, p.ID)
	case p.MinTerm <= 0 || p.MinTerm > p.MaxTerm:
		return fmt.Errorf("%w: lender %d has invalid term bounds %d-%d", apperrors.ErrInvalidInput, p.ID, p.MinTerm, p.MaxTerm)
	}
	return nil
}
