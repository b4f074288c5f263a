package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlipRepository persists year-end slips. Amendments are new rows linked via
// amends_slip_id; nothing here ever rewrites an issued slip's box values.
type SlipRepository interface {
	Create(ctx context.Context, slip *model.YearEndSlip) error
	Update(ctx context.Context, slip *model.YearEndSlip) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.YearEndSlip, error)
	ListForEmployeeYear(ctx context.Context, employeeID uuid.UUID, taxYear int) ([]model.YearEndSlip, error)
}

type slipRepository struct {
	db *gorm.DB
}

func NewSlipRepository(db *gorm.DB) SlipRepository {
	return &slipRepository{db: db}
}

func (r *slipRepository) Create(ctx context.Context, slip *model.YearEndSlip) error {
	return GetDB(ctx, r.db).Create(slip).Error
}

func (r *slipRepository) Update(ctx context.Context, slip *model.YearEndSlip) error {
	return GetDB(ctx, r.db).Save(slip).Error
}

func (r *slipRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.YearEndSlip, error) {
	var slip model.YearEndSlip
	if err := GetDB(ctx, r.db).First(&slip, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slip, nil
}

func (r *slipRepository) ListForEmployeeYear(ctx context.Context, employeeID uuid.UUID, taxYear int) ([]model.YearEndSlip, error) {
	var slips []model.YearEndSlip
	if err := GetDB(ctx, r.db).
		Where("employee_id = ? AND tax_year = ?", employeeID, taxYear).
		Order("created_at ASC").
		Find(&slips).Error; err != nil {
		return nil, err
	}
	return slips, nil
}
