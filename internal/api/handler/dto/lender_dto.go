package dto

import (
	"lora-lending/internal/domain/lender"
)

type LenderResponse struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	InterestType       string   `json:"interestType"`
	InterestRate       string   `json:"interestRate"`
	MinAmount          string   `json:"minAmount"`
	MaxAmount          string   `json:"maxAmount"`
	MinTerm            int      `json:"minTerm"`
	MaxTerm            int      `json:"maxTerm"`
	ProcessingFee      string   `json:"processingFee"`
	Requirements       []string `json:"requirements"`
	PhysicalVisitation bool     `json:"physicalVisitation"`
	ProcessingTime     string   `json:"processingTime,omitempty"`
	Description        string   `json:"description,omitempty"`
	Contact            string   `json:"contact,omitempty"`
	Address            string   `json:"address,omitempty"`
}

// NewLenderResponse renders the rate as a percentage, e.g. "7.5".
func NewLenderResponse(p *lender.Policy) LenderResponse {
	requirements := p.Requirements
	if requirements == nil {
		requirements = []string{}
	}
	return LenderResponse{
		ID:                 p.ID,
		Name:               p.Name,
		InterestType:       string(p.InterestType),
		InterestRate:       p.RatePercent().String(),
		MinAmount:          formatMoney(p.MinAmount),
		MaxAmount:          formatMoney(p.MaxAmount),
		MinTerm:            p.MinTerm,
		MaxTerm:            p.MaxTerm,
		ProcessingFee:      formatMoney(p.ProcessingFee),
		Requirements:       requirements,
		PhysicalVisitation: p.PhysicalVisitation,
		ProcessingTime:     p.ProcessingTime,
		Description:        p.Description,
		Contact:            p.Contact,
		Address:            p.Address,
	}
}

func NewLenderListResponse(policies []*lender.Policy) []LenderResponse {
	out := make([]LenderResponse, len(policies))
	for i, p := range policies {
		out[i] = NewLenderResponse(p)
	}
	return out
}
