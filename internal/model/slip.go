package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SlipType enum constants
const (
	SlipTypeT4  = "T4"  // employees
	SlipTypeT4A = "T4A" // contractors
)

// SlipStatus enum constants
const (
	SlipStatusDraft     = "DRAFT"
	SlipStatusFinalized = "FINALIZED"
	SlipStatusIssued    = "ISSUED"
	SlipStatusAmended   = "AMENDED"
)

// slipTransitions is the closed set of legal slip status moves. AMENDED is
// terminal for the original slip; the amendment itself is a new DRAFT row.
var slipTransitions = map[string][]string{
	SlipStatusDraft:     {SlipStatusFinalized},
	SlipStatusFinalized: {SlipStatusIssued},
	SlipStatusIssued:    {SlipStatusAmended},
	SlipStatusAmended:   {},
}

// CanTransitionSlip reports whether a slip may move from one status to
// another.
func CanTransitionSlip(from, to string) bool {
	for _, allowed := range slipTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// YearEndSlip is a regulator-format annual summary of one employee's or
// contractor's earnings and withholdings (T4/T4A box values). Amending an
// issued slip creates a new row linked through AmendsSlipID; the original is
// retained unmodified apart from its status, preserving the audit trail for
// regulator inquiries.
type YearEndSlip struct {
	ID                     uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SlipType               string          `gorm:"type:varchar(10);not null;index" json:"slip_type"` // T4, T4A
	EmployeeID             uuid.UUID       `gorm:"type:uuid;not null;index:idx_year_end_slips_employee_year" json:"employee_id"`
	TaxYear                int             `gorm:"not null;index:idx_year_end_slips_employee_year" json:"tax_year"`
	EmploymentIncome       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"employment_income"`
	CPPContributions       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cpp_contributions"`
	CPPPensionableEarnings decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cpp_pensionable_earnings"`
	EIPremiums             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"ei_premiums"`
	EIInsurableEarnings    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"ei_insurable_earnings"`
	IncomeTaxDeducted      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"income_tax_deducted"`
	FeesForServices        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"fees_for_services"` // T4A box 048
	AmendsSlipID           *uuid.UUID      `gorm:"type:uuid;index" json:"amends_slip_id"`
	Amends                 *YearEndSlip    `gorm:"foreignKey:AmendsSlipID" json:"amends,omitempty"`
	Status                 string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	FinalizedAt            *time.Time      `json:"finalized_at"`
	IssuedAt               *time.Time      `json:"issued_at"`
	AmendedAt              *time.Time      `json:"amended_at"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// IncomeAmount returns the income box the validation gate checks: employment
// income for T4 slips, fees for services for T4A slips.
func (s *YearEndSlip) IncomeAmount() decimal.Decimal {
	if s.SlipType == SlipTypeT4A {
		return s.FeesForServices
	}
	return s.EmploymentIncome
}
