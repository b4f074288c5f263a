package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayRunResult is the persisted outcome of one deduction calculation for one
// employee in one pay run. Rows are written after each calculation and read
// by the remittance and year-end aggregators; the transient provider cache
// is never the source of truth.
type PayRunResult struct {
	ID                  uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_pay_run_results_employee_year" json:"employee_id"`
	TaxYear             int             `gorm:"not null;index:idx_pay_run_results_employee_year" json:"tax_year"`
	Jurisdiction        string          `gorm:"type:varchar(10);not null" json:"jurisdiction"`
	PayDate             time.Time       `gorm:"type:date;not null;index" json:"pay_date"`
	PayFrequency        string          `gorm:"type:varchar(20);not null" json:"pay_frequency"`
	GrossPay            decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"gross_pay"`
	CPP                 decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cpp"`
	EI                  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"ei"`
	FederalTax          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"federal_tax"`
	ProvincialTax       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"provincial_tax"`
	EmployerCPP         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"employer_cpp"`
	EmployerEI          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"employer_ei"`
	PensionableEarnings decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"pensionable_earnings"`
	InsurableEarnings   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"insurable_earnings"`
	NetPay              decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"net_pay"`
	Source              string          `gorm:"type:varchar(20);not null" json:"source"` // authority, cache, fallback
	CreatedAt           time.Time       `json:"created_at"`
}

// RemittanceTotals is the SQL aggregation over pay run results inside a
// remittance period.
type RemittanceTotals struct {
	IncomeTax     decimal.Decimal `json:"income_tax"`
	CPPEmployee   decimal.Decimal `json:"cpp_employee"`
	CPPEmployer   decimal.Decimal `json:"cpp_employer"`
	EIEmployee    decimal.Decimal `json:"ei_employee"`
	EIEmployer    decimal.Decimal `json:"ei_employer"`
	GrossPayroll  decimal.Decimal `json:"gross_payroll"`
	EmployeeCount int64           `json:"employee_count"`
}

// SlipTotals is the SQL aggregation over one employee's pay run results for
// a full tax year, mapped onto year-end slip boxes by the slip builder.
type SlipTotals struct {
	EmploymentIncome       decimal.Decimal `json:"employment_income"`
	CPPContributions       decimal.Decimal `json:"cpp_contributions"`
	CPPPensionableEarnings decimal.Decimal `json:"cpp_pensionable_earnings"`
	EIPremiums             decimal.Decimal `json:"ei_premiums"`
	EIInsurableEarnings    decimal.Decimal `json:"ei_insurable_earnings"`
	IncomeTaxDeducted      decimal.Decimal `json:"income_tax_deducted"`
	ResultCount            int64           `json:"result_count"`
}
