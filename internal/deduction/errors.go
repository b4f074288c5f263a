package deduction

import (
	"fmt"
	"time"
)

// InvalidInputError marks a malformed pay event. Not retriable; the caller
// must fix the input.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid pay event: %s: %s", e.Field, e.Reason)
}

// MissingRateTableError marks the absence of an active rate table for a
// (jurisdiction, tax year) pair. Not retriable until the table data is fixed.
type MissingRateTableError struct {
	Jurisdiction string
	TaxYear      int
}

func (e *MissingRateTableError) Error() string {
	return fmt.Sprintf("no active rate table for %s %d", e.Jurisdiction, e.TaxYear)
}

// ProviderTimeoutError marks a remote authority call that exceeded its
// deadline. Retriable; the provider chain may fall back locally.
type ProviderTimeoutError struct {
	RequestID string
	Timeout   time.Duration
}

func (e *ProviderTimeoutError) Error() string {
	return fmt.Sprintf("remote authority timed out after %s (request %s)", e.Timeout, e.RequestID)
}

// ProviderServerError marks a 5xx-class response from the remote authority.
// Retriable once after backoff before the chain gives up on the remote.
type ProviderServerError struct {
	RequestID  string
	StatusCode int
	Body       string
}

func (e *ProviderServerError) Error() string {
	return fmt.Sprintf("remote authority returned %d (request %s): %s", e.StatusCode, e.RequestID, e.Body)
}
