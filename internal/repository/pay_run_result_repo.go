package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayRunResultRepository persists per-pay-run deduction outcomes and serves
// the SQL aggregations the remittance and slip builders run over them.
type PayRunResultRepository interface {
	Create(ctx context.Context, result *model.PayRunResult) error
	CreateBatch(ctx context.Context, results []model.PayRunResult) error
	ListForEmployeeYear(ctx context.Context, employeeID uuid.UUID, taxYear int) ([]model.PayRunResult, error)
	SumForPeriod(ctx context.Context, periodStart, periodEnd time.Time) (model.RemittanceTotals, error)
	SumForEmployeeYear(ctx context.Context, employeeID uuid.UUID, taxYear int) (model.SlipTotals, error)
}

type payRunResultRepository struct {
	db *gorm.DB
}

func NewPayRunResultRepository(db *gorm.DB) PayRunResultRepository {
	return &payRunResultRepository{db: db}
}

func (r *payRunResultRepository) Create(ctx context.Context, result *model.PayRunResult) error {
	return GetDB(ctx, r.db).Create(result).Error
}

func (r *payRunResultRepository) CreateBatch(ctx context.Context, results []model.PayRunResult) error {
	if len(results) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).CreateInBatches(results, 100).Error
}

func (r *payRunResultRepository) ListForEmployeeYear(ctx context.Context, employeeID uuid.UUID, taxYear int) ([]model.PayRunResult, error) {
	var results []model.PayRunResult
	if err := GetDB(ctx, r.db).
		Where("employee_id = ? AND tax_year = ?", employeeID, taxYear).
		Order("pay_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *payRunResultRepository) SumForPeriod(ctx context.Context, periodStart, periodEnd time.Time) (model.RemittanceTotals, error) {
	var totals model.RemittanceTotals
	err := GetDB(ctx, r.db).Model(&model.PayRunResult{}).
		Select(`COALESCE(SUM(federal_tax + provincial_tax), 0) AS income_tax,
			COALESCE(SUM(cpp), 0) AS cpp_employee,
			COALESCE(SUM(employer_cpp), 0) AS cpp_employer,
			COALESCE(SUM(ei), 0) AS ei_employee,
			COALESCE(SUM(employer_ei), 0) AS ei_employer,
			COALESCE(SUM(gross_pay), 0) AS gross_payroll,
			COUNT(DISTINCT employee_id) AS employee_count`).
		Where("pay_date >= ? AND pay_date <= ?", periodStart, periodEnd).
		Scan(&totals).Error
	return totals, err
}

func (r *payRunResultRepository) SumForEmployeeYear(ctx context.Context, employeeID uuid.UUID, taxYear int) (model.SlipTotals, error) {
	var totals model.SlipTotals
	err := GetDB(ctx, r.db).Model(&model.PayRunResult{}).
		Select(`COALESCE(SUM(gross_pay), 0) AS employment_income,
			COALESCE(SUM(cpp), 0) AS cpp_contributions,
			COALESCE(SUM(pensionable_earnings), 0) AS cpp_pensionable_earnings,
			COALESCE(SUM(ei), 0) AS ei_premiums,
			COALESCE(SUM(insurable_earnings), 0) AS ei_insurable_earnings,
			COALESCE(SUM(federal_tax + provincial_tax), 0) AS income_tax_deducted,
			COUNT(*) AS result_count`).
		Where("employee_id = ? AND tax_year = ?", employeeID, taxYear).
		Scan(&totals).Error
	return totals, err
}
