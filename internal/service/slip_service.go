package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SlipService aggregates a full tax year of deduction results per employee
// into year-end slip box values and drives the slip lifecycle:
// draft -> finalized -> issued -> amended.
type SlipService interface {
	Build(ctx context.Context, employeeID string, taxYear int, slipType string) (*model.YearEndSlip, error)
	Finalize(ctx context.Context, id string) (*model.YearEndSlip, error)
	Issue(ctx context.Context, id string) (*model.YearEndSlip, error)
	Amend(ctx context.Context, id string) (*model.YearEndSlip, error)
	GetSlip(ctx context.Context, id string) (*model.YearEndSlip, error)
}

type slipService struct {
	slips     repository.SlipRepository
	results   repository.PayRunResultRepository
	rates     RateService
	txManager repository.TransactionManager
}

func NewSlipService(
	slips repository.SlipRepository,
	results repository.PayRunResultRepository,
	rates RateService,
	txManager repository.TransactionManager,
) SlipService {
	return &slipService{slips: slips, results: results, rates: rates, txManager: txManager}
}

// Build sums the employee's pay run results for the year into a DRAFT slip.
// T4 slips report the totals as employment income; T4A slips report them as
// fees for services (box 048).
func (s *slipService) Build(ctx context.Context, employeeID string, taxYear int, slipType string) (*model.YearEndSlip, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, fmt.Errorf("invalid employee id: %w", err)
	}
	if slipType != model.SlipTypeT4 && slipType != model.SlipTypeT4A {
		return nil, fmt.Errorf("unknown slip type %q", slipType)
	}

	totals, err := s.results.SumForEmployeeYear(ctx, empID, taxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pay run results: %w", err)
	}

	slip := &model.YearEndSlip{
		SlipType:               slipType,
		EmployeeID:             empID,
		TaxYear:                taxYear,
		CPPContributions:       totals.CPPContributions,
		CPPPensionableEarnings: totals.CPPPensionableEarnings,
		EIPremiums:             totals.EIPremiums,
		EIInsurableEarnings:    totals.EIInsurableEarnings,
		IncomeTaxDeducted:      totals.IncomeTaxDeducted,
		Status:                 model.SlipStatusDraft,
	}
	if slipType == model.SlipTypeT4A {
		slip.FeesForServices = totals.EmploymentIncome
	} else {
		slip.EmploymentIncome = totals.EmploymentIncome
	}

	if err := s.slips.Create(ctx, slip); err != nil {
		return nil, fmt.Errorf("failed to store year-end slip: %w", err)
	}
	return slip, nil
}

// Finalize runs the validation gate and moves a DRAFT slip to FINALIZED.
// Validation collects every violation in one pass rather than stopping at
// the first, so the caller can surface the complete list.
func (s *slipService) Finalize(ctx context.Context, id string) (*model.YearEndSlip, error) {
	slip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionSlip(slip.Status, model.SlipStatusFinalized) {
		return nil, fmt.Errorf("slip cannot move from %s to %s", slip.Status, model.SlipStatusFinalized)
	}

	federal, err := s.rates.FederalTable(ctx, slip.TaxYear)
	if err != nil {
		return nil, err
	}

	var violations []SlipViolation
	if cppMax := federal.CPPMaxContribution(); slip.CPPContributions.GreaterThan(cppMax) {
		violations = append(violations, SlipViolation{
			Code:    ViolationCPPOverMax,
			Message: fmt.Sprintf("CPP contributions %s exceed the %d statutory maximum %s", slip.CPPContributions.StringFixed(2), slip.TaxYear, cppMax.StringFixed(2)),
		})
	}
	if eiMax := federal.EIMaxPremium(); slip.EIPremiums.GreaterThan(eiMax) {
		violations = append(violations, SlipViolation{
			Code:    ViolationEIOverMax,
			Message: fmt.Sprintf("EI premiums %s exceed the %d statutory maximum %s", slip.EIPremiums.StringFixed(2), slip.TaxYear, eiMax.StringFixed(2)),
		})
	}
	if slip.IncomeAmount().LessThanOrEqual(decimal.Zero) {
		violations = append(violations, SlipViolation{
			Code:    ViolationNoIncome,
			Message: "income must be positive to finalize a slip",
		})
	}
	if len(violations) > 0 {
		return nil, &SlipValidationError{Violations: violations}
	}

	now := time.Now()
	slip.Status = model.SlipStatusFinalized
	slip.FinalizedAt = &now
	if err := s.slips.Update(ctx, slip); err != nil {
		return nil, fmt.Errorf("failed to update year-end slip: %w", err)
	}
	return slip, nil
}

// Issue moves a FINALIZED slip to ISSUED.
func (s *slipService) Issue(ctx context.Context, id string) (*model.YearEndSlip, error) {
	slip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionSlip(slip.Status, model.SlipStatusIssued) {
		return nil, fmt.Errorf("slip cannot move from %s to %s", slip.Status, model.SlipStatusIssued)
	}

	now := time.Now()
	slip.Status = model.SlipStatusIssued
	slip.IssuedAt = &now
	if err := s.slips.Update(ctx, slip); err != nil {
		return nil, fmt.Errorf("failed to update year-end slip: %w", err)
	}
	return slip, nil
}

// Amend creates a new DRAFT slip linked to an ISSUED original and returns
// it. The original keeps its box values byte for byte; only its status moves
// to AMENDED, so the history stays intact for regulator inquiries.
func (s *slipService) Amend(ctx context.Context, id string) (*model.YearEndSlip, error) {
	original, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionSlip(original.Status, model.SlipStatusAmended) {
		return nil, fmt.Errorf("only issued slips may be amended, slip is %s", original.Status)
	}

	now := time.Now()
	amendment := &model.YearEndSlip{
		SlipType:               original.SlipType,
		EmployeeID:             original.EmployeeID,
		TaxYear:                original.TaxYear,
		EmploymentIncome:       original.EmploymentIncome,
		CPPContributions:       original.CPPContributions,
		CPPPensionableEarnings: original.CPPPensionableEarnings,
		EIPremiums:             original.EIPremiums,
		EIInsurableEarnings:    original.EIInsurableEarnings,
		IncomeTaxDeducted:      original.IncomeTaxDeducted,
		FeesForServices:        original.FeesForServices,
		AmendsSlipID:           &original.ID,
		Status:                 model.SlipStatusDraft,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		original.Status = model.SlipStatusAmended
		original.AmendedAt = &now
		if updateErr := s.slips.Update(txCtx, original); updateErr != nil {
			return fmt.Errorf("failed to mark original slip amended: %w", updateErr)
		}
		return s.slips.Create(txCtx, amendment)
	})
	if err != nil {
		return nil, err
	}
	return amendment, nil
}

func (s *slipService) GetSlip(ctx context.Context, id string) (*model.YearEndSlip, error) {
	return s.load(ctx, id)
}

func (s *slipService) load(ctx context.Context, id string) (*model.YearEndSlip, error) {
	slipID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid slip id: %w", err)
	}
	slip, err := s.slips.FindByID(ctx, slipID)
	if err != nil {
		return nil, fmt.Errorf("year-end slip not found: %w", err)
	}
	return slip, nil
}
