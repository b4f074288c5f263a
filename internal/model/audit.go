package model

import (
	"time"

	"github.com/google/uuid"
)

// Provider operation constants
const (
	OperationRemoteCalculate   = "REMOTE_CALCULATE"
	OperationFallbackCalculate = "FALLBACK_CALCULATE"
)

// Provider outcome constants
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// ProviderAuditLog tracks every remote-authority attempt and fallback
// recomputation: who was calculated, through which backend, and how it went.
// Request payloads are stored with identity-sensitive fields already masked.
// Rows are append-only and exported by an external reporting tool.
type ProviderAuditLog struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Operation     string    `gorm:"type:varchar(50);not null;index" json:"operation"`
	RequestID     string    `gorm:"type:varchar(64);index" json:"request_id"`
	MaskedPayload string    `gorm:"type:jsonb" json:"masked_payload"`
	StatusCode    int       `json:"status_code"`
	Outcome       string    `gorm:"type:varchar(20);not null;index" json:"outcome"` // success, error, timeout
	DurationMs    int64     `json:"duration_ms"`
	ErrorText     string    `gorm:"type:text" json:"error_text"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}
