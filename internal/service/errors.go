package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PeriodLockedError rejects recomputation of a remittance period after money
// has moved. Not retriable; unlocking requires an authorized action outside
// the engine.
type PeriodLockedError struct {
	PeriodID uuid.UUID
	Status   string
}

func (e *PeriodLockedError) Error() string {
	return fmt.Sprintf("remittance period %s is %s and can no longer be recomputed", e.PeriodID, e.Status)
}

// Slip violation codes
const (
	ViolationCPPOverMax = "CPP_OVER_ANNUAL_MAX"
	ViolationEIOverMax  = "EI_OVER_ANNUAL_MAX"
	ViolationNoIncome   = "INCOME_NOT_POSITIVE"
)

// SlipViolation is one named reason a slip cannot be finalized.
type SlipViolation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SlipValidationError carries every violation found in a single validation
// pass, so the caller can display all issues at once instead of fixing them
// one round-trip at a time.
type SlipValidationError struct {
	Violations []SlipViolation
}

func (e *SlipValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Code+": "+v.Message)
	}
	return "slip validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether the error names the given violation code.
func (e *SlipValidationError) Has(code string) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}
