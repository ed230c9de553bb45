package loan

import (
	"fmt"
	"lora-lending/internal/pkg/apperrors"
	"strings"

	"github.com/shopspring/decimal"
)

type Purpose string

const (
	PurposeEmergency         Purpose = "Emergency Expenses"
	PurposeEducation         Purpose = "Education"
	PurposeHomeImprovement   Purpose = "Home Improvement"
	PurposeBusinessCapital   Purpose = "Business Capital"
	PurposeDebtConsolidation Purpose = "Debt Consolidation"
	PurposeMedicalBills      Purpose = "Medical Bills"
	PurposeVehiclePurchase   Purpose = "Vehicle Purchase"
	PurposeTravel            Purpose = "Travel"
	PurposeWedding           Purpose = "Wedding"
	PurposeOther             Purpose = "Other"
)

var Purposes = []Purpose{
	PurposeEmergency,
	PurposeEducation,
	PurposeHomeImprovement,
	PurposeBusinessCapital,
	PurposeDebtConsolidation,
	PurposeMedicalBills,
	PurposeVehiclePurchase,
	PurposeTravel,
	PurposeWedding,
	PurposeOther,
}

func (p Purpose) Valid() bool {
	for _, known := range Purposes {
		if p == known {
			return true
		}
	}
	return false
}

type Collateral string

const (
	CollateralATM      Collateral = "ATM"
	CollateralCheck    Collateral = "CHECK"
	CollateralPassbook Collateral = "PASSBOOK"
	CollateralOther    Collateral = "OTHER"
)

func ParseCollateral(s string) (Collateral, error) {
	c := Collateral(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CollateralATM, CollateralCheck, CollateralPassbook, CollateralOther:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown collateral %q", apperrors.ErrInvalidArgument, s)
}

type LoanType string

const (
	LoanTypeNew   LoanType = "NEW"
	LoanTypeBonus LoanType = "BONUS"
)

// LoanRequest is what a borrower submits. It is not modified after Submit.
type LoanRequest struct {
	Principal       decimal.Decimal
	TermMonths      int
	Purpose         Purpose
	Collateral      []Collateral
	OtherCollateral string
	MonthlyIncome   decimal.Decimal
	LoanType        LoanType
}

// CollateralSummary joins the selected collateral for storage and display,
// substituting the free-text description for OTHER when one was given.
func (r LoanRequest) CollateralSummary() []string {
	out := make([]string, 0, len(r.Collateral))
	seen := make(map[Collateral]bool, len(r.Collateral))
	for _, c := range r.Collateral {
		if seen[c] {
			continue
		}
		seen[c] = true
		if c == CollateralOther && strings.TrimSpace(r.OtherCollateral) != "" {
			out = append(out, "OTHER: "+strings.TrimSpace(r.OtherCollateral))
			continue
		}
		out = append(out, string(c))
	}
	return out
}
