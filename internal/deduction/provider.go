package deduction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeductionProvider is a single calculation backend. Concrete
// implementations are RemoteAuthority and LocalFallback; the Chain composes
// them with caching and auditing.
type DeductionProvider interface {
	Name() string
	Calculate(ctx context.Context, event PayEvent) (DeductionResult, error)
}

// RateResolver supplies the active rate tables for a jurisdiction and tax
// year. Implemented by the rate service over the rate table repository.
type RateResolver interface {
	Resolve(ctx context.Context, jurisdiction string, taxYear int) (RateSet, error)
}

// AuditEntry is one provider invocation record, transport-agnostic so sinks
// can persist or fan out however they like. The payload must arrive already
// masked.
type AuditEntry struct {
	EmployeeID    uuid.UUID
	Operation     string
	RequestID     string
	MaskedPayload string
	StatusCode    int
	Outcome       string
	Duration      time.Duration
	ErrorText     string
}

// AuditSink records provider invocations. Writes are best-effort: callers
// swallow sink errors so a broken sink can never abort a calculation.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// LocalFallback computes deductions in-process with the Calculator. It is
// the terminal provider: given valid input and an active rate table it
// always terminates.
type LocalFallback struct {
	calc  *Calculator
	rates RateResolver
}

func NewLocalFallback(calc *Calculator, rates RateResolver) *LocalFallback {
	return &LocalFallback{calc: calc, rates: rates}
}

func (p *LocalFallback) Name() string { return "local_fallback" }

func (p *LocalFallback) Calculate(ctx context.Context, event PayEvent) (DeductionResult, error) {
	rates, err := p.rates.Resolve(ctx, event.Jurisdiction, event.TaxYear)
	if err != nil {
		return DeductionResult{}, err
	}
	result, err := p.calc.Calculate(event, rates)
	if err != nil {
		return DeductionResult{}, err
	}
	result.Source = SourceFallback
	return result, nil
}

// AuditedProvider decorates any provider with best-effort audit recording.
// The remote authority audits its own HTTP attempts (it knows status codes
// and request IDs); this decorator covers fallback invocations.
type AuditedProvider struct {
	next      DeductionProvider
	sink      AuditSink
	operation string
}

func NewAuditedProvider(next DeductionProvider, sink AuditSink, operation string) *AuditedProvider {
	return &AuditedProvider{next: next, sink: sink, operation: operation}
}

func (p *AuditedProvider) Name() string { return p.next.Name() }

func (p *AuditedProvider) Calculate(ctx context.Context, event PayEvent) (DeductionResult, error) {
	start := time.Now()
	result, err := p.next.Calculate(ctx, event)

	entry := AuditEntry{
		EmployeeID:    event.EmployeeID,
		Operation:     p.operation,
		RequestID:     uuid.NewString(),
		MaskedPayload: maskedEventJSON(event),
		Outcome:       OutcomeFor(err),
		Duration:      time.Since(start),
	}
	if err != nil {
		entry.ErrorText = err.Error()
	}
	if p.sink != nil {
		_ = p.sink.Record(ctx, entry)
	}

	return result, err
}
