package deduction

import (
	"github.com/shopspring/decimal"

	"backend/internal/model"
)

// Calculator computes CPP, EI and income tax withholding for a single pay
// event. Pure and deterministic: no clock, no randomness, no shared state,
// so it is safe to call concurrently across a worker pool.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate turns one pay event plus the active rate tables into a deduction
// result. Every monetary sub-result is rounded half-up to 2 decimal places
// after the final per-period division, not before; regulator reconciliation
// is sensitive to cumulative rounding drift.
func (c *Calculator) Calculate(event PayEvent, rates RateSet) (DeductionResult, error) {
	if event.GrossPay.IsNegative() {
		return DeductionResult{}, &InvalidInputError{Field: "gross_pay", Reason: "must not be negative"}
	}
	periods, ok := event.Frequency.PeriodsPerYear()
	if !ok {
		return DeductionResult{}, &InvalidInputError{Field: "pay_frequency", Reason: "unrecognized frequency " + string(event.Frequency)}
	}
	if rates.Federal == nil {
		return DeductionResult{}, &MissingRateTableError{Jurisdiction: model.JurisdictionFederal, TaxYear: event.TaxYear}
	}
	if rates.Provincial == nil {
		return DeductionResult{}, &MissingRateTableError{Jurisdiction: event.Jurisdiction, TaxYear: event.TaxYear}
	}
	if rates.Federal.TaxYear != event.TaxYear || rates.Provincial.TaxYear != event.TaxYear {
		return DeductionResult{}, &InvalidInputError{Field: "tax_year", Reason: "rate tables do not match the event's tax year"}
	}

	fed := rates.Federal
	n := decimal.NewFromInt(int64(periods))
	annualGross := event.GrossPay.Mul(n)

	// CPP: clamp annual pensionable earnings to [0, annualMax - exemption],
	// then cap the period contribution so YTD never exceeds the statutory
	// annual maximum. The employer matches the employee contribution.
	pensionable := annualGross.Sub(fed.CPPBasicExemption)
	if pensionable.IsNegative() {
		pensionable = decimal.Zero
	}
	if ceiling := fed.CPPAnnualMax.Sub(fed.CPPBasicExemption); pensionable.GreaterThan(ceiling) {
		pensionable = ceiling
	}
	annualCPP := pensionable.Mul(fed.CPPRate)
	cpp := cappedPeriodAmount(annualCPP, n, fed.CPPMaxContribution(), event.YTD.CPPContributed)
	employerCPP := cpp

	// EI: insurable earnings capped at the annual maximum; the employer pays
	// a multiple of the employee premium with no independent cap.
	insurable := annualGross
	if insurable.GreaterThan(fed.EIAnnualMaxInsurable) {
		insurable = fed.EIAnnualMaxInsurable
	}
	annualEI := insurable.Mul(fed.EIRate)
	ei := cappedPeriodAmount(annualEI, n, fed.EIMaxPremium(), event.YTD.EIContributed)
	employerEI := ei.Mul(fed.EIEmployerMultiplier).Round(2)

	// Income tax on the annualized period income net of CPP/EI, less the
	// basic personal amount plus any additional TD1 claim amounts.
	annualTaxable := event.GrossPay.Sub(cpp).Sub(ei).Mul(n)
	federalTax := periodTax(annualTaxable, fed.BasicPersonalAmount.Add(event.Claims.FederalAdditional), fed.Brackets, n)
	provincialTax := periodTax(annualTaxable, rates.Provincial.BasicPersonalAmount.Add(event.Claims.ProvincialAdditional), rates.Provincial.Brackets, n)

	result := DeductionResult{
		CPP:                 cpp,
		EI:                  ei,
		FederalTax:          federalTax,
		ProvincialTax:       provincialTax,
		EmployerCPP:         employerCPP,
		EmployerEI:          employerEI,
		PensionableEarnings: pensionable.Div(n).Round(2),
		InsurableEarnings:   insurable.Div(n).Round(2),
		TaxYear:             event.TaxYear,
	}
	result.NetPay = event.GrossPay.Sub(result.TotalDeductions())
	return result, nil
}

// cappedPeriodAmount divides an annualized contribution into a per-period
// amount and caps it against the room remaining under the statutory annual
// maximum. YTD at or beyond the maximum yields zero, never a negative.
func cappedPeriodAmount(annual, periods, statutoryMax, ytd decimal.Decimal) decimal.Decimal {
	room := statutoryMax.Sub(ytd)
	if room.IsNegative() {
		room = decimal.Zero
	}
	period := annual.Div(periods)
	if period.GreaterThan(room) {
		period = room
	}
	return period.Round(2)
}

// periodTax walks the ordered bracket list over annualized taxable income
// less credits, then divides back to a per-period amount. Income exactly on
// a bracket boundary is taxed at the lower bracket's rate.
func periodTax(annualTaxable, credits decimal.Decimal, brackets model.BracketList, periods decimal.Decimal) decimal.Decimal {
	taxable := annualTaxable.Sub(credits)
	if !taxable.IsPositive() {
		return decimal.Zero
	}

	annualTax := decimal.Zero
	lower := decimal.Zero
	for _, b := range brackets {
		upper := taxable
		if b.UpperBound != nil && b.UpperBound.LessThan(taxable) {
			upper = *b.UpperBound
		}
		if upper.GreaterThan(lower) {
			annualTax = annualTax.Add(upper.Sub(lower).Mul(b.MarginalRate))
		}
		if b.UpperBound == nil || taxable.LessThanOrEqual(*b.UpperBound) {
			break
		}
		lower = *b.UpperBound
	}

	return annualTax.Div(periods).Round(2)
}
