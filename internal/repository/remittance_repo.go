package repository

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RemittanceRepository persists remittance periods.
type RemittanceRepository interface {
	Create(ctx context.Context, period *model.RemittancePeriod) error
	Update(ctx context.Context, period *model.RemittancePeriod) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RemittancePeriod, error)
	FindByRange(ctx context.Context, periodStart, periodEnd time.Time, periodType string) (*model.RemittancePeriod, error)
	List(ctx context.Context) ([]model.RemittancePeriod, error)
}

type remittanceRepository struct {
	db *gorm.DB
}

func NewRemittanceRepository(db *gorm.DB) RemittanceRepository {
	return &remittanceRepository{db: db}
}

func (r *remittanceRepository) Create(ctx context.Context, period *model.RemittancePeriod) error {
	return GetDB(ctx, r.db).Create(period).Error
}

func (r *remittanceRepository) Update(ctx context.Context, period *model.RemittancePeriod) error {
	return GetDB(ctx, r.db).Save(period).Error
}

func (r *remittanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RemittancePeriod, error) {
	var period model.RemittancePeriod
	if err := GetDB(ctx, r.db).First(&period, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

// FindByRange returns the period exactly matching the given window, or nil
// when none exists yet.
func (r *remittanceRepository) FindByRange(ctx context.Context, periodStart, periodEnd time.Time, periodType string) (*model.RemittancePeriod, error) {
	var period model.RemittancePeriod
	err := GetDB(ctx, r.db).
		Where("period_start = ? AND period_end = ? AND period_type = ?", periodStart, periodEnd, periodType).
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

func (r *remittanceRepository) List(ctx context.Context) ([]model.RemittancePeriod, error) {
	var periods []model.RemittancePeriod
	if err := GetDB(ctx, r.db).Order("period_start DESC").Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}
