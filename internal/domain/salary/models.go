package salary

import (
	"time"

	"github.com/shopspring/decimal"
)

type Structure struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	BasicSalary        decimal.Decimal `json:"basic_salary"`
	HousingAllowance   decimal.Decimal `json:"housing_allowance"`
	TransportAllowance decimal.Decimal `json:"transport_allowance"`
	OtherAllowances    decimal.Decimal `json:"other_allowances"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	SocialInsurance    decimal.Decimal `json:"social_insurance"`
	Currency           string          `json:"currency"`
	EffectiveFrom      time.Time       `json:"effective_from"`
	EffectiveTo        *time.Time      `json:"effective_to,omitempty"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Allowances is housing + transport + other.
func (s Structure) Allowances() decimal.Decimal {
	return s.HousingAllowance.Add(s.TransportAllowance).Add(s.OtherAllowances)
}

// Covers reports whether the structure is active and its effective range
// intersects [start, end].
func (s Structure) Covers(start, end time.Time) bool {
	if !s.Active || s.EffectiveFrom.After(end) {
		return false
	}
	return s.EffectiveTo == nil || !s.EffectiveTo.Before(start)
}

type CreateInput struct {
	EmployeeID         string
	BasicSalary        decimal.Decimal
	HousingAllowance   decimal.Decimal
	TransportAllowance decimal.Decimal
	OtherAllowances    decimal.Decimal
	TaxRate            decimal.Decimal
	SocialInsurance    decimal.Decimal
	Currency           string
	EffectiveFrom      time.Time
	EffectiveTo        *time.Time
}
