package dto

import (
	"errors"
	"lora-lending/internal/domain/loan"
	"lora-lending/internal/pkg/apperrors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteRequest takes amount and term as entered in the form.
type QuoteRequest struct {
	Amount string `json:"amount" example:"10000"`
	Term   string `json:"term" example:"2"`
}

// Parse rejects missing or malformed input with the same field messages the
// lender-bound checks use.
func (r *QuoteRequest) Parse() (decimal.Decimal, int, error) {
	if res := loan.ValidateRaw(r.Amount, r.Term, nil); !res.Valid() {
		return decimal.Zero, 0, res.Err()
	}
	amount, _ := decimal.NewFromString(strings.TrimSpace(r.Amount))
	term, _ := strconv.Atoi(strings.TrimSpace(r.Term))
	return amount, term, nil
}

type AmortizationResponse struct {
	Principal      string `json:"principal"`
	TermMonths     int    `json:"termMonths"`
	InterestType   string `json:"interestType"`
	InterestRate   string `json:"interestRate"`
	TotalInterest  string `json:"totalInterest"`
	TotalPayment   string `json:"totalPayment"`
	MonthlyPayment string `json:"monthlyPayment"`
	ProcessingFee  string `json:"processingFee"`
	NetRelease     string `json:"netRelease"`
}

func NewAmortizationResponse(a *loan.Amortization) *AmortizationResponse {
	if a == nil {
		return nil
	}
	return &AmortizationResponse{
		Principal:      formatMoney(a.Principal),
		TermMonths:     a.TermMonths,
		InterestType:   string(a.InterestType),
		InterestRate:   a.InterestRate.String(),
		TotalInterest:  formatMoney(a.TotalInterest),
		TotalPayment:   formatMoney(a.TotalPayment),
		MonthlyPayment: formatMoney(a.MonthlyPayment),
		ProcessingFee:  formatMoney(a.ProcessingFee),
		NetRelease:     formatMoney(a.NetRelease),
	}
}

type ScheduleEntryResponse struct {
	Period    int    `json:"period"`
	DueDate   string `json:"dueDate"`
	Principal string `json:"principal"`
	Interest  string `json:"interest"`
	Total     string `json:"total"`
	Remaining string `json:"remaining"`
}

func NewScheduleResponse(entries []loan.ScheduleEntry) []ScheduleEntryResponse {
	out := make([]ScheduleEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ScheduleEntryResponse{
			Period:    e.Period,
			DueDate:   e.DueDate.Format(time.DateOnly),
			Principal: formatMoney(e.Principal),
			Interest:  formatMoney(e.Interest),
			Total:     formatMoney(e.Total),
			Remaining: formatMoney(e.Remaining),
		}
	}
	return out
}

type QuoteResponse struct {
	Lender       LenderResponse          `json:"lender"`
	Eligible     bool                    `json:"eligible"`
	Errors       map[string]string       `json:"errors,omitempty"`
	Amortization *AmortizationResponse   `json:"amortization,omitempty"`
	Schedule     []ScheduleEntryResponse `json:"schedule,omitempty"`
}

func NewQuoteResponse(q *loan.Quote) QuoteResponse {
	resp := QuoteResponse{
		Lender:   NewLenderResponse(q.Lender),
		Eligible: q.Eligible(),
	}
	if !resp.Eligible {
		var fe *apperrors.FieldErrors
		if errors.As(q.Validation.Err(), &fe) {
			resp.Errors = fe.Messages()
		}
		return resp
	}
	resp.Amortization = NewAmortizationResponse(q.Amortization)
	if len(q.Schedule) > 0 {
		resp.Schedule = NewScheduleResponse(q.Schedule)
	}
	return resp
}

func NewQuoteListResponse(quotes []*loan.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteResponse(q)
	}
	return out
}
