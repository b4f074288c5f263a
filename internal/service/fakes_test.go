package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func federalTable2025() *model.RateTable {
	upper := func(s string) *decimal.Decimal {
		d := dec(s)
		return &d
	}
	return &model.RateTable{
		ID:                   uuid.New(),
		TaxYear:              2025,
		Jurisdiction:         model.JurisdictionFederal,
		IsActive:             true,
		CPPRate:              dec("0.0595"),
		CPPBasicExemption:    dec("3500"),
		CPPAnnualMax:         dec("71300"),
		EIRate:               dec("0.0164"),
		EIAnnualMaxInsurable: dec("65700"),
		EIEmployerMultiplier: dec("1.4"),
		BasicPersonalAmount:  dec("16129"),
		Brackets: model.BracketList{
			{UpperBound: upper("57375"), MarginalRate: dec("0.15")},
			{UpperBound: upper("114750"), MarginalRate: dec("0.205")},
			{UpperBound: nil, MarginalRate: dec("0.33")},
		},
	}
}

func provincialTable2025(jurisdiction string) *model.RateTable {
	table := federalTable2025()
	table.ID = uuid.New()
	table.Jurisdiction = jurisdiction
	table.BasicPersonalAmount = dec("12747")
	table.Brackets = model.BracketList{
		{UpperBound: table.Brackets[0].UpperBound, MarginalRate: dec("0.0505")},
		{UpperBound: nil, MarginalRate: dec("0.1316")},
	}
	return table
}

// fakeTxManager runs the callback without a transaction.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// fakeRateTableRepo serves tables keyed by (jurisdiction, tax year).
type fakeRateTableRepo struct {
	tables    map[string]*model.RateTable
	activated []uuid.UUID
}

func newFakeRateTableRepo(tables ...*model.RateTable) *fakeRateTableRepo {
	repo := &fakeRateTableRepo{tables: make(map[string]*model.RateTable)}
	for _, t := range tables {
		repo.put(t)
	}
	return repo
}

func rateKey(jurisdiction string, taxYear int) string {
	return fmt.Sprintf("%s|%d", jurisdiction, taxYear)
}

func (r *fakeRateTableRepo) put(t *model.RateTable) {
	r.tables[rateKey(t.Jurisdiction, t.TaxYear)] = t
}

func (r *fakeRateTableRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RateTable, error) {
	for _, t := range r.tables {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRateTableRepo) FindActive(_ context.Context, jurisdiction string, taxYear int) (*model.RateTable, error) {
	t, ok := r.tables[rateKey(jurisdiction, taxYear)]
	if !ok || !t.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeRateTableRepo) List(_ context.Context, taxYear int) ([]model.RateTable, error) {
	var out []model.RateTable
	for _, t := range r.tables {
		if taxYear == 0 || t.TaxYear == taxYear {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRateTableRepo) Activate(_ context.Context, id uuid.UUID) error {
	r.activated = append(r.activated, id)
	return nil
}

// fakeResultRepo stores pay run results in memory and computes the
// aggregations by iteration.
type fakeResultRepo struct {
	mu   sync.Mutex
	rows []model.PayRunResult
}

func (r *fakeResultRepo) Create(_ context.Context, result *model.PayRunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *result)
	return nil
}

func (r *fakeResultRepo) CreateBatch(_ context.Context, results []model.PayRunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, results...)
	return nil
}

func (r *fakeResultRepo) ListForEmployeeYear(_ context.Context, employeeID uuid.UUID, taxYear int) ([]model.PayRunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PayRunResult
	for _, row := range r.rows {
		if row.EmployeeID == employeeID && row.TaxYear == taxYear {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) SumForPeriod(_ context.Context, periodStart, periodEnd time.Time) (model.RemittanceTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var totals model.RemittanceTotals
	employees := make(map[uuid.UUID]struct{})
	for _, row := range r.rows {
		if row.PayDate.Before(periodStart) || row.PayDate.After(periodEnd) {
			continue
		}
		totals.IncomeTax = totals.IncomeTax.Add(row.FederalTax).Add(row.ProvincialTax)
		totals.CPPEmployee = totals.CPPEmployee.Add(row.CPP)
		totals.CPPEmployer = totals.CPPEmployer.Add(row.EmployerCPP)
		totals.EIEmployee = totals.EIEmployee.Add(row.EI)
		totals.EIEmployer = totals.EIEmployer.Add(row.EmployerEI)
		totals.GrossPayroll = totals.GrossPayroll.Add(row.GrossPay)
		employees[row.EmployeeID] = struct{}{}
	}
	totals.EmployeeCount = int64(len(employees))
	return totals, nil
}

func (r *fakeResultRepo) SumForEmployeeYear(_ context.Context, employeeID uuid.UUID, taxYear int) (model.SlipTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var totals model.SlipTotals
	for _, row := range r.rows {
		if row.EmployeeID != employeeID || row.TaxYear != taxYear {
			continue
		}
		totals.EmploymentIncome = totals.EmploymentIncome.Add(row.GrossPay)
		totals.CPPContributions = totals.CPPContributions.Add(row.CPP)
		totals.CPPPensionableEarnings = totals.CPPPensionableEarnings.Add(row.PensionableEarnings)
		totals.EIPremiums = totals.EIPremiums.Add(row.EI)
		totals.EIInsurableEarnings = totals.EIInsurableEarnings.Add(row.InsurableEarnings)
		totals.IncomeTaxDeducted = totals.IncomeTaxDeducted.Add(row.FederalTax).Add(row.ProvincialTax)
		totals.ResultCount++
	}
	return totals, nil
}

// fakeRemittanceRepo hands out copies so service-side mutations only land on
// Update, mirroring a real database round trip.
type fakeRemittanceRepo struct {
	periods map[uuid.UUID]model.RemittancePeriod
}

func newFakeRemittanceRepo() *fakeRemittanceRepo {
	return &fakeRemittanceRepo{periods: make(map[uuid.UUID]model.RemittancePeriod)}
}

func (r *fakeRemittanceRepo) Create(_ context.Context, period *model.RemittancePeriod) error {
	if period.ID == uuid.Nil {
		period.ID = uuid.New()
	}
	r.periods[period.ID] = *period
	return nil
}

func (r *fakeRemittanceRepo) Update(_ context.Context, period *model.RemittancePeriod) error {
	if _, ok := r.periods[period.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.periods[period.ID] = *period
	return nil
}

func (r *fakeRemittanceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RemittancePeriod, error) {
	period, ok := r.periods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &period, nil
}

func (r *fakeRemittanceRepo) FindByRange(_ context.Context, periodStart, periodEnd time.Time, periodType string) (*model.RemittancePeriod, error) {
	for _, period := range r.periods {
		if period.PeriodStart.Equal(periodStart) && period.PeriodEnd.Equal(periodEnd) && period.PeriodType == periodType {
			p := period
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakeRemittanceRepo) List(_ context.Context) ([]model.RemittancePeriod, error) {
	out := make([]model.RemittancePeriod, 0, len(r.periods))
	for _, period := range r.periods {
		out = append(out, period)
	}
	return out, nil
}

// fakeSlipRepo mirrors fakeRemittanceRepo for year-end slips.
type fakeSlipRepo struct {
	slips map[uuid.UUID]model.YearEndSlip
}

func newFakeSlipRepo() *fakeSlipRepo {
	return &fakeSlipRepo{slips: make(map[uuid.UUID]model.YearEndSlip)}
}

func (r *fakeSlipRepo) Create(_ context.Context, slip *model.YearEndSlip) error {
	if slip.ID == uuid.Nil {
		slip.ID = uuid.New()
	}
	r.slips[slip.ID] = *slip
	return nil
}

func (r *fakeSlipRepo) Update(_ context.Context, slip *model.YearEndSlip) error {
	if _, ok := r.slips[slip.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.slips[slip.ID] = *slip
	return nil
}

func (r *fakeSlipRepo) FindByID(_ context.Context, id uuid.UUID) (*model.YearEndSlip, error) {
	slip, ok := r.slips[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &slip, nil
}

func (r *fakeSlipRepo) ListForEmployeeYear(_ context.Context, employeeID uuid.UUID, taxYear int) ([]model.YearEndSlip, error) {
	var out []model.YearEndSlip
	for _, slip := range r.slips {
		if slip.EmployeeID == employeeID && slip.TaxYear == taxYear {
			out = append(out, slip)
		}
	}
	return out, nil
}
