package database

import (
	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection opens the GORM connection pool and migrates the engine's
// tables. Rate tables are only migrated, never seeded: their content comes
// from the external ingestion process.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.RateTable{},
		&model.PayRunResult{},
		&model.RemittancePeriod{},
		&model.YearEndSlip{},
		&model.ProviderAuditLog{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
