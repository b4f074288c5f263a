package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/deduction"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RateServiceConfig controls jurisdiction fallback. Misapplying another
// province's brackets silently would be worse than failing, so fallback is
// opt-in and off by default.
type RateServiceConfig struct {
	DefaultJurisdiction       string
	AllowJurisdictionFallback bool
}

// RateService resolves the active rate tables a calculation needs and
// exposes the activation helper backing the ingestion contract.
type RateService interface {
	deduction.RateResolver
	FederalTable(ctx context.Context, taxYear int) (*model.RateTable, error)
	ActivateTable(ctx context.Context, id string) error
}

type rateService struct {
	repo repository.RateTableRepository
	cfg  RateServiceConfig
}

func NewRateService(repo repository.RateTableRepository, cfg RateServiceConfig) RateService {
	return &rateService{repo: repo, cfg: cfg}
}

// Resolve loads and validates the active federal and provincial tables for
// the pair (jurisdiction, taxYear).
func (s *rateService) Resolve(ctx context.Context, jurisdiction string, taxYear int) (deduction.RateSet, error) {
	federal, err := s.FederalTable(ctx, taxYear)
	if err != nil {
		return deduction.RateSet{}, err
	}

	if !model.IsValidJurisdiction(jurisdiction) || jurisdiction == model.JurisdictionFederal {
		if !s.cfg.AllowJurisdictionFallback || s.cfg.DefaultJurisdiction == "" {
			return deduction.RateSet{}, &deduction.InvalidInputError{Field: "jurisdiction", Reason: fmt.Sprintf("unknown jurisdiction %q", jurisdiction)}
		}
		jurisdiction = s.cfg.DefaultJurisdiction
	}

	provincial, err := s.findActive(ctx, jurisdiction, taxYear)
	if err != nil {
		var missing *deduction.MissingRateTableError
		if errors.As(err, &missing) && s.cfg.AllowJurisdictionFallback && s.cfg.DefaultJurisdiction != "" && s.cfg.DefaultJurisdiction != jurisdiction {
			provincial, err = s.findActive(ctx, s.cfg.DefaultJurisdiction, taxYear)
		}
		if err != nil {
			return deduction.RateSet{}, err
		}
	}

	return deduction.RateSet{Federal: federal, Provincial: provincial}, nil
}

func (s *rateService) FederalTable(ctx context.Context, taxYear int) (*model.RateTable, error) {
	return s.findActive(ctx, model.JurisdictionFederal, taxYear)
}

func (s *rateService) findActive(ctx context.Context, jurisdiction string, taxYear int) (*model.RateTable, error) {
	table, err := s.repo.FindActive(ctx, jurisdiction, taxYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &deduction.MissingRateTableError{Jurisdiction: jurisdiction, TaxYear: taxYear}
		}
		return nil, fmt.Errorf("failed to query rate table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("active rate table is invalid: %w", err)
	}
	return table, nil
}

func (s *rateService) ActivateTable(ctx context.Context, id string) error {
	tableID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid rate table id: %w", err)
	}
	return s.repo.Activate(ctx, tableID)
}
