package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RemittancePeriodType enum constants
const (
	PeriodTypeMonthly   = "MONTHLY"
	PeriodTypeQuarterly = "QUARTERLY"
)

// RemittanceStatus enum constants
const (
	RemittanceStatusDraft      = "DRAFT"
	RemittanceStatusCalculated = "CALCULATED"
	RemittanceStatusPaid       = "PAID"
	RemittanceStatusSubmitted  = "SUBMITTED"
)

// remittanceTransitions is the closed set of legal status moves. Recomputing
// a CALCULATED period is a self-transition; PAID and SUBMITTED periods are
// frozen except for the paid -> submitted confirmation.
var remittanceTransitions = map[string][]string{
	RemittanceStatusDraft:      {RemittanceStatusCalculated},
	RemittanceStatusCalculated: {RemittanceStatusCalculated, RemittanceStatusPaid},
	RemittanceStatusPaid:       {RemittanceStatusSubmitted},
	RemittanceStatusSubmitted:  {},
}

// CanTransitionRemittance reports whether a remittance period may move from
// one status to another.
func CanTransitionRemittance(from, to string) bool {
	for _, allowed := range remittanceTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RemittancePeriod aggregates deduction results over a calendar period into
// the employer's remittance obligation toward the tax authority.
type RemittancePeriod struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PeriodType    string          `gorm:"type:varchar(20);not null" json:"period_type"` // MONTHLY, QUARTERLY
	PeriodStart   time.Time       `gorm:"type:date;not null;index:idx_remittance_periods_range" json:"period_start"`
	PeriodEnd     time.Time       `gorm:"type:date;not null;index:idx_remittance_periods_range" json:"period_end"`
	DueDate       time.Time       `gorm:"type:date;not null" json:"due_date"`
	IncomeTax     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"income_tax"`
	CPPEmployee   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cpp_employee"`
	CPPEmployer   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cpp_employer"`
	EIEmployee    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"ei_employee"`
	EIEmployer    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"ei_employer"`
	GrossPayroll  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"gross_payroll"`
	EmployeeCount int             `gorm:"not null;default:0" json:"employee_count"`
	Status        string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	CalculatedAt  *time.Time      `json:"calculated_at"`
	PaidAt        *time.Time      `json:"paid_at"`
	SubmittedAt   *time.Time      `json:"submitted_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TotalRemittance is the full amount owed for the period.
func (p *RemittancePeriod) TotalRemittance() decimal.Decimal {
	return p.IncomeTax.
		Add(p.CPPEmployee).Add(p.CPPEmployer).
		Add(p.EIEmployee).Add(p.EIEmployer)
}

// IsLocked reports whether the period's totals are frozen. Money has moved
// once a period is PAID; recomputation is rejected from then on.
func (p *RemittancePeriod) IsLocked() bool {
	return p.Status == RemittanceStatusPaid || p.Status == RemittanceStatusSubmitted
}

// IsOverdue is a derived property, never stored.
func (p *RemittancePeriod) IsOverdue(now time.Time) bool {
	return p.DueDate.Before(now) && !p.IsLocked()
}
