package service

import (
	"context"
	"fmt"

	"backend/internal/deduction"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/rs/zerolog"
)

// PayRunService runs a batch of pay events through the provider chain and
// persists one PayRunResult row per employee for the downstream aggregators.
type PayRunService interface {
	RunPayRun(ctx context.Context, events []deduction.PayEvent) ([]deduction.DeductionResult, error)
}

type payRunService struct {
	chain     *deduction.Chain
	results   repository.PayRunResultRepository
	txManager repository.TransactionManager
	log       zerolog.Logger
}

func NewPayRunService(
	chain *deduction.Chain,
	results repository.PayRunResultRepository,
	txManager repository.TransactionManager,
	log zerolog.Logger,
) PayRunService {
	return &payRunService{chain: chain, results: results, txManager: txManager, log: log}
}

func (s *payRunService) RunPayRun(ctx context.Context, events []deduction.PayEvent) ([]deduction.DeductionResult, error) {
	if len(events) == 0 {
		return nil, nil
	}

	results, err := s.chain.CalculateBatch(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("pay run calculation failed: %w", err)
	}

	rows := make([]model.PayRunResult, 0, len(results))
	for i, r := range results {
		event := events[i]
		rows = append(rows, model.PayRunResult{
			EmployeeID:          event.EmployeeID,
			TaxYear:             event.TaxYear,
			Jurisdiction:        event.Jurisdiction,
			PayDate:             event.PayDate,
			PayFrequency:        string(event.Frequency),
			GrossPay:            event.GrossPay,
			CPP:                 r.CPP,
			EI:                  r.EI,
			FederalTax:          r.FederalTax,
			ProvincialTax:       r.ProvincialTax,
			EmployerCPP:         r.EmployerCPP,
			EmployerEI:          r.EmployerEI,
			PensionableEarnings: r.PensionableEarnings,
			InsurableEarnings:   r.InsurableEarnings,
			NetPay:              r.NetPay,
			Source:              r.Source,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.results.CreateBatch(txCtx, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist pay run results: %w", err)
	}

	s.log.Info().
		Int("employees", len(rows)).
		Msg("pay run completed")

	return results, nil
}
