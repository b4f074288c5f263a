package deduction

import (
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayFrequency enumerates the supported pay schedules.
type PayFrequency string

const (
	FrequencyWeekly      PayFrequency = "WEEKLY"
	FrequencyBiweekly    PayFrequency = "BIWEEKLY"
	FrequencySemiMonthly PayFrequency = "SEMI_MONTHLY"
	FrequencyMonthly     PayFrequency = "MONTHLY"
)

// PeriodsPerYear returns the annualization divisor for the frequency.
func (f PayFrequency) PeriodsPerYear() (int, bool) {
	switch f {
	case FrequencyWeekly:
		return 52, true
	case FrequencyBiweekly:
		return 26, true
	case FrequencySemiMonthly:
		return 24, true
	case FrequencyMonthly:
		return 12, true
	default:
		return 0, false
	}
}

// Source values tag where a deduction result came from.
const (
	SourceAuthority = "authority"
	SourceCache     = "cache"
	SourceFallback  = "fallback"
)

// YTDSnapshot carries the employee's year-to-date totals at the moment the
// pay event is submitted. The calculator caps period contributions against
// these so statutory annual maximums are never exceeded.
type YTDSnapshot struct {
	CPPContributed        decimal.Decimal `json:"cpp_contributed"`
	EIContributed         decimal.Decimal `json:"ei_contributed"`
	FederalTaxWithheld    decimal.Decimal `json:"federal_tax_withheld"`
	ProvincialTaxWithheld decimal.Decimal `json:"provincial_tax_withheld"`
}

// ClaimAmounts are TD1-equivalent personal credit amounts claimed on top of
// the jurisdiction's basic personal amount.
type ClaimAmounts struct {
	FederalAdditional    decimal.Decimal `json:"federal_additional"`
	ProvincialAdditional decimal.Decimal `json:"provincial_additional"`
}

// PayEvent is one gross pay occurrence for one employee. Immutable once
// submitted. SIN is optional and is masked before it leaves the process.
type PayEvent struct {
	EmployeeID   uuid.UUID       `json:"employee_id"`
	SIN          string          `json:"sin,omitempty"`
	Jurisdiction string          `json:"jurisdiction"`
	TaxYear      int             `json:"tax_year"`
	PayDate      time.Time       `json:"pay_date"`
	Frequency    PayFrequency    `json:"pay_frequency"`
	GrossPay     decimal.Decimal `json:"gross_pay"`
	YTD          YTDSnapshot     `json:"ytd"`
	Claims       ClaimAmounts    `json:"claims"`
}

// DeductionResult is the outcome of one statutory deduction calculation.
// Derived data: it is cached transiently and persisted per pay run, but the
// pay event plus rate table remain the source of truth.
type DeductionResult struct {
	CPP                 decimal.Decimal `json:"cpp"`
	EI                  decimal.Decimal `json:"ei"`
	FederalTax          decimal.Decimal `json:"federal_tax"`
	ProvincialTax       decimal.Decimal `json:"provincial_tax"`
	EmployerCPP         decimal.Decimal `json:"employer_cpp"`
	EmployerEI          decimal.Decimal `json:"employer_ei"`
	PensionableEarnings decimal.Decimal `json:"pensionable_earnings"`
	InsurableEarnings   decimal.Decimal `json:"insurable_earnings"`
	NetPay              decimal.Decimal `json:"net_pay"`
	TaxYear             int             `json:"tax_year"`
	Source              string          `json:"source"` // authority, cache, fallback
}

// TotalDeductions is the sum withheld from the employee for the period.
func (r DeductionResult) TotalDeductions() decimal.Decimal {
	return r.CPP.Add(r.EI).Add(r.FederalTax).Add(r.ProvincialTax)
}

// RateSet bundles the two active rate tables a calculation needs. CPP and EI
// parameters are read from the federal table; each table contributes its own
// basic personal amount and bracket list.
type RateSet struct {
	Federal    *model.RateTable
	Provincial *model.RateTable
}
