package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

// AuditRepository is the append-only store behind the provider audit sink.
// The CSV export consuming these rows lives in an external reporting tool.
type AuditRepository interface {
	Log(ctx context.Context, entry *model.ProviderAuditLog) error
	List(ctx context.Context, page, limit int) ([]model.ProviderAuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.ProviderAuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, page, limit int) ([]model.ProviderAuditLog, int64, error) {
	var total int64
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ProviderAuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var entries []model.ProviderAuditLog
	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
