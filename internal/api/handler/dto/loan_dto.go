package dto

import (
	"lora-lending/internal/domain/loan"
	"lora-lending/internal/pkg/apperrors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type SubmitLoanRequest struct {
	LenderID        int64    `json:"lenderId" validate:"required,gt=0" example:"1"`
	Amount          string   `json:"amount" example:"10000"`
	Term            string   `json:"term" example:"2"`
	Purpose         string   `json:"purpose" example:"Education"`
	Collateral      []string `json:"collateral" example:"ATM"`
	OtherCollateral string   `json:"otherCollateral,omitempty" validate:"max=200"`
	MonthlyIncome   string   `json:"monthlyIncome" example:"25000"`
	LoanType        string   `json:"loanType,omitempty" validate:"omitempty,oneof=NEW BONUS" example:"NEW"`
}

// Validate normalizes LoanType first so "new" and "bonus" are accepted.
func (r *SubmitLoanRequest) Validate() error {
	r.LoanType = strings.ToUpper(strings.TrimSpace(r.LoanType))
	return validateStruct(r)
}

// ToDomain parses the form fields. Every unparseable field is reported at
// once; lender bounds are checked later by the service.
func (r *SubmitLoanRequest) ToDomain() (loan.LoanRequest, error) {
	fields := make(map[string]*apperrors.ValidationError)

	if res := loan.ValidateRaw(r.Amount, r.Term, nil); !res.Valid() {
		for k, v := range res.Errors {
			fields[k] = v
		}
	}

	var income decimal.Decimal
	if raw := strings.TrimSpace(r.MonthlyIncome); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			fields[loan.FieldMonthlyIncome] = &apperrors.ValidationError{
				Field: loan.FieldMonthlyIncome, Message: "Enter a valid income", Cause: apperrors.ErrInvalidAmount,
			}
		}
		income = parsed
	}

	collateral := make([]loan.Collateral, 0, len(r.Collateral))
	for _, c := range r.Collateral {
		parsed, err := loan.ParseCollateral(c)
		if err != nil {
			fields["collateral"] = &apperrors.ValidationError{
				Field: "collateral", Message: "Select a valid collateral", Cause: apperrors.ErrInvalidArgument,
			}
			break
		}
		collateral = append(collateral, parsed)
	}

	if len(fields) > 0 {
		return loan.LoanRequest{}, &apperrors.FieldErrors{Fields: fields}
	}

	amount, _ := decimal.NewFromString(strings.TrimSpace(r.Amount))
	term, _ := strconv.Atoi(strings.TrimSpace(r.Term))
	return loan.LoanRequest{
		Principal:       amount,
		TermMonths:      term,
		Purpose:         loan.Purpose(strings.TrimSpace(r.Purpose)),
		Collateral:      collateral,
		OtherCollateral: r.OtherCollateral,
		MonthlyIncome:   income,
		LoanType:        loan.LoanType(strings.ToUpper(strings.TrimSpace(r.LoanType))),
	}, nil
}

type PaymentRequest struct {
	Method string `json:"method" validate:"required" example:"WALLET"`
}

func (r *PaymentRequest) Validate() error {
	return validateStruct(r)
}

// BillingResponse renders undetermined amounts as "TBD" and an unset due
// date as "To be determined".
type BillingResponse struct {
	ApplicationID  string `json:"applicationId"`
	Status         string `json:"status"`
	Principal      string `json:"principal"`
	InterestDue    string `json:"interestDue"`
	Penalties      string `json:"penalties"`
	TotalAmountDue string `json:"totalAmountDue"`
	MonthlyPayment string `json:"monthlyPayment"`
	DueDate        string `json:"dueDate"`
}

func NewBillingResponse(b *loan.BillingBreakdown) *BillingResponse {
	if b == nil {
		return nil
	}
	return &BillingResponse{
		ApplicationID:  b.ApplicationID,
		Status:         string(b.Status),
		Principal:      b.Principal.String(),
		InterestDue:    b.InterestDue.String(),
		Penalties:      b.Penalties.String(),
		TotalAmountDue: b.TotalAmountDue.String(),
		MonthlyPayment: b.MonthlyPayment.String(),
		DueDate:        b.DueDate.String(),
	}
}

type LoanResponse struct {
	ID             string           `json:"id"`
	BorrowerID     int64            `json:"borrowerId"`
	LenderID       int64            `json:"lenderId"`
	LenderName     string           `json:"lenderName"`
	Principal      string           `json:"principal"`
	TermMonths     int              `json:"termMonths"`
	Purpose        string           `json:"purpose"`
	Collateral     []string         `json:"collateral"`
	MonthlyIncome  string           `json:"monthlyIncome"`
	LoanType       string           `json:"loanType"`
	InterestType   string           `json:"interestType"`
	InterestRate   string           `json:"interestRate"`
	TotalInterest  string           `json:"totalInterest"`
	TotalPayment   string           `json:"totalPayment"`
	MonthlyPayment string           `json:"monthlyPayment"`
	ProcessingFee  string           `json:"processingFee"`
	NetRelease     string           `json:"netRelease"`
	Status         string           `json:"status"`
	SubmittedAt    time.Time        `json:"submittedAt"`
	ApprovedAt     *time.Time       `json:"approvedAt,omitempty"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
	Billing        *BillingResponse `json:"billing,omitempty"`
}

// NewLoanResponse attaches the billing breakdown when it can be built.
func NewLoanResponse(l *loan.Loan) LoanResponse {
	collateral := l.Collateral
	if collateral == nil {
		collateral = []string{}
	}
	resp := LoanResponse{
		ID:             l.ID,
		BorrowerID:     l.BorrowerID,
		LenderID:       l.LenderID,
		LenderName:     l.LenderName,
		Principal:      formatMoney(l.Principal),
		TermMonths:     l.TermMonths,
		Purpose:        string(l.Purpose),
		Collateral:     collateral,
		MonthlyIncome:  formatMoney(l.MonthlyIncome),
		LoanType:       string(l.LoanType),
		InterestType:   string(l.InterestType),
		InterestRate:   l.Amortization().InterestRate.String(),
		TotalInterest:  formatMoney(l.TotalInterest),
		TotalPayment:   formatMoney(l.TotalPayment),
		MonthlyPayment: formatMoney(l.MonthlyPayment),
		ProcessingFee:  formatMoney(l.ProcessingFee),
		NetRelease:     formatMoney(l.NetRelease),
		Status:         string(l.Status),
		SubmittedAt:    l.SubmittedAt,
		ApprovedAt:     l.ApprovedAt,
		CompletedAt:    l.CompletedAt,
	}
	if b, err := l.Billing(); err == nil {
		resp.Billing = NewBillingResponse(b)
	}
	return resp
}

func NewLoanListResponse(loans []*loan.Loan) []LoanResponse {
	out := make([]LoanResponse, len(loans))
	for i, l := range loans {
		out[i] = NewLoanResponse(l)
	}
	return out
}
