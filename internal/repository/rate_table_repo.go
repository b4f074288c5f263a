package repository

import (
	"context"
	"fmt"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RateTableRepository reads the statutory parameter tables maintained by the
// external upload process. Activation is the one write the engine performs,
// enforcing the "exactly one active table per (jurisdiction, tax_year)"
// contract.
type RateTableRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.RateTable, error)
	FindActive(ctx context.Context, jurisdiction string, taxYear int) (*model.RateTable, error)
	List(ctx context.Context, taxYear int) ([]model.RateTable, error)
	Activate(ctx context.Context, id uuid.UUID) error
}

type rateTableRepository struct {
	db *gorm.DB
}

func NewRateTableRepository(db *gorm.DB) RateTableRepository {
	return &rateTableRepository{db: db}
}

func (r *rateTableRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RateTable, error) {
	var table model.RateTable
	if err := GetDB(ctx, r.db).First(&table, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *rateTableRepository) FindActive(ctx context.Context, jurisdiction string, taxYear int) (*model.RateTable, error) {
	var table model.RateTable
	if err := GetDB(ctx, r.db).
		Where("jurisdiction = ? AND tax_year = ? AND is_active = ?", jurisdiction, taxYear, true).
		First(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *rateTableRepository) List(ctx context.Context, taxYear int) ([]model.RateTable, error) {
	var tables []model.RateTable
	query := GetDB(ctx, r.db).Order("tax_year DESC, jurisdiction ASC")
	if taxYear > 0 {
		query = query.Where("tax_year = ?", taxYear)
	}
	if err := query.Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// Activate marks the table active and deactivates any prior active table for
// the same (jurisdiction, tax_year), atomically.
func (r *rateTableRepository) Activate(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var table model.RateTable
		if err := tx.First(&table, "id = ?", id).Error; err != nil {
			return fmt.Errorf("rate table not found: %w", err)
		}
		if err := table.Validate(); err != nil {
			return fmt.Errorf("refusing to activate invalid rate table: %w", err)
		}

		if err := tx.Model(&model.RateTable{}).
			Where("jurisdiction = ? AND tax_year = ? AND id != ?", table.Jurisdiction, table.TaxYear, table.ID).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate prior rate tables: %w", err)
		}

		return tx.Model(&table).Update("is_active", true).Error
	})
}
