package deduction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"backend/internal/model"
)

const (
	DefaultRemoteTimeout = 8 * time.Second
	defaultRetryBackoff  = 1 * time.Second
)

// RemoteAuthorityConfig configures the government calculation service
// client.
type RemoteAuthorityConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// RemoteAuthority calls the remote calculation authority over JSON/HTTPS.
// Every attempt carries a bearer credential and a unique X-Request-ID, masks
// identity-sensitive fields, and is recorded through the audit sink
// regardless of outcome. A 5xx response is retried once after a fixed
// backoff; 4xx responses and timeouts are not retried here.
type RemoteAuthority struct {
	cfg     RemoteAuthorityConfig
	client  *http.Client
	sink    AuditSink
	log     zerolog.Logger
	backoff time.Duration
}

func NewRemoteAuthority(cfg RemoteAuthorityConfig, sink AuditSink, log zerolog.Logger) *RemoteAuthority {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRemoteTimeout
	}
	return &RemoteAuthority{
		cfg:     cfg,
		client:  &http.Client{},
		sink:    sink,
		log:     log,
		backoff: defaultRetryBackoff,
	}
}

func (p *RemoteAuthority) Name() string { return "remote_authority" }

// remoteRequest is the wire payload. The SIN is never sent unmasked.
type remoteRequest struct {
	EmployeeID   string          `json:"employee_id"`
	SIN          string          `json:"sin,omitempty"`
	Jurisdiction string          `json:"jurisdiction"`
	TaxYear      int             `json:"tax_year"`
	PayFrequency string          `json:"pay_frequency"`
	GrossPay     decimal.Decimal `json:"gross_pay"`
	YTD          YTDSnapshot     `json:"ytd"`
	Claims       ClaimAmounts    `json:"claims"`
}

type remoteResponse struct {
	CPP                 decimal.Decimal `json:"cpp"`
	EI                  decimal.Decimal `json:"ei"`
	FederalTax          decimal.Decimal `json:"federal_tax"`
	ProvincialTax       decimal.Decimal `json:"provincial_tax"`
	EmployerCPP         decimal.Decimal `json:"employer_cpp"`
	EmployerEI          decimal.Decimal `json:"employer_ei"`
	PensionableEarnings decimal.Decimal `json:"pensionable_earnings"`
	InsurableEarnings   decimal.Decimal `json:"insurable_earnings"`
	NetPay              decimal.Decimal `json:"net_pay"`
	Meta                struct {
		Year      int    `json:"year"`
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func (p *RemoteAuthority) Calculate(ctx context.Context, event PayEvent) (DeductionResult, error) {
	payload := remoteRequest{
		EmployeeID:   event.EmployeeID.String(),
		SIN:          MaskSIN(event.SIN),
		Jurisdiction: event.Jurisdiction,
		TaxYear:      event.TaxYear,
		PayFrequency: string(event.Frequency),
		GrossPay:     event.GrossPay,
		YTD:          event.YTD,
		Claims:       event.Claims,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return DeductionResult{}, fmt.Errorf("failed to encode authority request: %w", err)
	}

	result, err := p.attempt(ctx, event, body)

	var serverErr *ProviderServerError
	if errors.As(err, &serverErr) {
		p.log.Warn().
			Str("employee_id", event.EmployeeID.String()).
			Int("status_code", serverErr.StatusCode).
			Msg("remote authority server error, retrying once after backoff")

		select {
		case <-time.After(p.backoff):
		case <-ctx.Done():
			return DeductionResult{}, ctx.Err()
		}
		result, err = p.attempt(ctx, event, body)
	}

	return result, err
}

// attempt performs one HTTP call and records one audit entry for it.
func (p *RemoteAuthority) attempt(ctx context.Context, event PayEvent, body []byte) (DeductionResult, error) {
	requestID := uuid.NewString()
	start := time.Now()

	result, statusCode, err := p.do(ctx, requestID, event, body)

	entry := AuditEntry{
		EmployeeID:    event.EmployeeID,
		Operation:     model.OperationRemoteCalculate,
		RequestID:     requestID,
		MaskedPayload: string(body),
		StatusCode:    statusCode,
		Outcome:       OutcomeFor(err),
		Duration:      time.Since(start),
	}
	if err != nil {
		entry.ErrorText = err.Error()
	}
	if p.sink != nil {
		// Best-effort: a broken audit sink never aborts the calculation.
		_ = p.sink.Record(ctx, entry)
	}

	return result, err
}

func (p *RemoteAuthority) do(ctx context.Context, requestID string, event PayEvent, body []byte) (DeductionResult, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, p.cfg.BaseURL+"/v1/deductions/calculate", bytes.NewReader(body))
	if err != nil {
		return DeductionResult{}, 0, fmt.Errorf("failed to build authority request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.Token)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return DeductionResult{}, 0, &ProviderTimeoutError{RequestID: requestID, Timeout: p.cfg.Timeout}
		}
		return DeductionResult{}, 0, fmt.Errorf("authority request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return DeductionResult{}, resp.StatusCode, fmt.Errorf("failed to read authority response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return DeductionResult{}, resp.StatusCode, &ProviderServerError{
			RequestID:  requestID,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	case resp.StatusCode >= 400:
		// Client errors are not retriable; surface them as-is.
		return DeductionResult{}, resp.StatusCode, fmt.Errorf("authority rejected request %s with status %d: %s", requestID, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded remoteResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return DeductionResult{}, resp.StatusCode, fmt.Errorf("failed to decode authority response: %w", err)
	}
	if decoded.Meta.Year != event.TaxYear {
		return DeductionResult{}, resp.StatusCode, fmt.Errorf("authority applied tax year %d, expected %d (request %s)", decoded.Meta.Year, event.TaxYear, requestID)
	}

	return DeductionResult{
		CPP:                 decoded.CPP,
		EI:                  decoded.EI,
		FederalTax:          decoded.FederalTax,
		ProvincialTax:       decoded.ProvincialTax,
		EmployerCPP:         decoded.EmployerCPP,
		EmployerEI:          decoded.EmployerEI,
		PensionableEarnings: decoded.PensionableEarnings,
		InsurableEarnings:   decoded.InsurableEarnings,
		NetPay:              decoded.NetPay,
		TaxYear:             decoded.Meta.Year,
		Source:              SourceAuthority,
	}, resp.StatusCode, nil
}

// MaskSIN redacts all but the last three characters of a government
// identifier. Empty input stays empty.
func MaskSIN(sin string) string {
	if sin == "" {
		return ""
	}
	if len(sin) <= 3 {
		return strings.Repeat("*", len(sin))
	}
	return strings.Repeat("*", len(sin)-3) + sin[len(sin)-3:]
}

// OutcomeFor classifies an error for the audit record.
func OutcomeFor(err error) string {
	if err == nil {
		return model.OutcomeSuccess
	}
	var timeoutErr *ProviderTimeoutError
	if errors.As(err, &timeoutErr) {
		return model.OutcomeTimeout
	}
	return model.OutcomeError
}

// maskedEventJSON renders a pay event for audit storage with the SIN masked.
func maskedEventJSON(event PayEvent) string {
	event.SIN = MaskSIN(event.SIN)
	raw, _ := json.Marshal(event)
	return string(raw)
}
