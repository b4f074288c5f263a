package service

import (
	"context"

	"backend/internal/deduction"
	"backend/internal/model"
	"backend/internal/repository"
)

// providerAuditSink maps provider audit entries onto the append-only
// provider_audit_logs table. Callers already treat sink writes as
// best-effort; this adapter just does the translation.
type providerAuditSink struct {
	repo repository.AuditRepository
}

// NewProviderAuditSink adapts the audit repository to the provider chain's
// sink interface.
func NewProviderAuditSink(repo repository.AuditRepository) deduction.AuditSink {
	return &providerAuditSink{repo: repo}
}

func (s *providerAuditSink) Record(ctx context.Context, entry deduction.AuditEntry) error {
	return s.repo.Log(ctx, &model.ProviderAuditLog{
		EmployeeID:    entry.EmployeeID,
		Operation:     entry.Operation,
		RequestID:     entry.RequestID,
		MaskedPayload: entry.MaskedPayload,
		StatusCode:    entry.StatusCode,
		Outcome:       entry.Outcome,
		DurationMs:    entry.Duration.Milliseconds(),
		ErrorText:     entry.ErrorText,
	})
}
