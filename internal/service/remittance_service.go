package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

const DefaultRemittanceDueOffsetDays = 15

// RemittanceConfig holds jurisdiction-defined remittance parameters. The due
// date offset is configuration, not algorithm.
type RemittanceConfig struct {
	DueOffsetDays int
}

// RemittanceService rolls deduction results up into employer remittance
// periods and drives their status lifecycle.
type RemittanceService interface {
	Calculate(ctx context.Context, periodStart, periodEnd time.Time, periodType string) (*model.RemittancePeriod, error)
	MarkPaid(ctx context.Context, id string) (*model.RemittancePeriod, error)
	MarkSubmitted(ctx context.Context, id string) (*model.RemittancePeriod, error)
	ListOverdue(ctx context.Context, now time.Time) ([]model.RemittancePeriod, error)
}

type remittanceService struct {
	periods   repository.RemittanceRepository
	results   repository.PayRunResultRepository
	txManager repository.TransactionManager
	cfg       RemittanceConfig
}

func NewRemittanceService(
	periods repository.RemittanceRepository,
	results repository.PayRunResultRepository,
	txManager repository.TransactionManager,
	cfg RemittanceConfig,
) RemittanceService {
	if cfg.DueOffsetDays <= 0 {
		cfg.DueOffsetDays = DefaultRemittanceDueOffsetDays
	}
	return &remittanceService{periods: periods, results: results, txManager: txManager, cfg: cfg}
}

// Calculate sums all pay run results dated inside the period and creates or
// recomputes the matching remittance period. Totals are always recomputed
// from the underlying results, never edited in place. Recomputing a PAID or
// SUBMITTED period fails with PeriodLockedError and leaves stored totals
// untouched.
func (s *remittanceService) Calculate(ctx context.Context, periodStart, periodEnd time.Time, periodType string) (*model.RemittancePeriod, error) {
	if periodType != model.PeriodTypeMonthly && periodType != model.PeriodTypeQuarterly {
		return nil, fmt.Errorf("unknown period type %q", periodType)
	}
	if periodEnd.Before(periodStart) {
		return nil, fmt.Errorf("period end %s precedes period start %s", periodEnd.Format("2006-01-02"), periodStart.Format("2006-01-02"))
	}

	existing, err := s.periods.FindByRange(ctx, periodStart, periodEnd, periodType)
	if err != nil {
		return nil, fmt.Errorf("failed to look up remittance period: %w", err)
	}
	if existing != nil && existing.IsLocked() {
		return nil, &PeriodLockedError{PeriodID: existing.ID, Status: existing.Status}
	}

	totals, err := s.results.SumForPeriod(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pay run results: %w", err)
	}

	now := time.Now()
	period := existing
	if period == nil {
		period = &model.RemittancePeriod{
			PeriodType:  periodType,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Status:      model.RemittanceStatusDraft,
		}
	}

	if !model.CanTransitionRemittance(period.Status, model.RemittanceStatusCalculated) {
		return nil, fmt.Errorf("remittance period cannot move from %s to %s", period.Status, model.RemittanceStatusCalculated)
	}

	period.DueDate = periodEnd.AddDate(0, 0, s.cfg.DueOffsetDays)
	period.IncomeTax = totals.IncomeTax
	period.CPPEmployee = totals.CPPEmployee
	period.CPPEmployer = totals.CPPEmployer
	period.EIEmployee = totals.EIEmployee
	period.EIEmployer = totals.EIEmployer
	period.GrossPayroll = totals.GrossPayroll
	period.EmployeeCount = int(totals.EmployeeCount)
	period.Status = model.RemittanceStatusCalculated
	period.CalculatedAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if existing == nil {
			return s.periods.Create(txCtx, period)
		}
		return s.periods.Update(txCtx, period)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store remittance period: %w", err)
	}

	return period, nil
}

// MarkPaid records external payment confirmation, freezing the totals.
func (s *remittanceService) MarkPaid(ctx context.Context, id string) (*model.RemittancePeriod, error) {
	return s.transition(ctx, id, model.RemittanceStatusPaid)
}

// MarkSubmitted records regulator confirmation of a paid period.
func (s *remittanceService) MarkSubmitted(ctx context.Context, id string) (*model.RemittancePeriod, error) {
	return s.transition(ctx, id, model.RemittanceStatusSubmitted)
}

func (s *remittanceService) transition(ctx context.Context, id, target string) (*model.RemittancePeriod, error) {
	periodID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid remittance period id: %w", err)
	}

	period, err := s.periods.FindByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("remittance period not found: %w", err)
	}
	if !model.CanTransitionRemittance(period.Status, target) {
		return nil, fmt.Errorf("remittance period cannot move from %s to %s", period.Status, target)
	}

	now := time.Now()
	period.Status = target
	switch target {
	case model.RemittanceStatusPaid:
		period.PaidAt = &now
	case model.RemittanceStatusSubmitted:
		period.SubmittedAt = &now
	}

	if err := s.periods.Update(ctx, period); err != nil {
		return nil, fmt.Errorf("failed to update remittance period: %w", err)
	}
	return period, nil
}

// ListOverdue filters on the derived overdue property; nothing is stored.
func (s *remittanceService) ListOverdue(ctx context.Context, now time.Time) ([]model.RemittancePeriod, error) {
	periods, err := s.periods.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remittance periods: %w", err)
	}

	overdue := make([]model.RemittancePeriod, 0)
	for _, p := range periods {
		if p.IsOverdue(now) {
			overdue = append(overdue, p)
		}
	}
	return overdue, nil
}
