package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Jurisdiction enum constants
const (
	JurisdictionFederal = "FEDERAL"
	JurisdictionAB      = "AB"
	JurisdictionBC      = "BC"
	JurisdictionMB      = "MB"
	JurisdictionNB      = "NB"
	JurisdictionNL      = "NL"
	JurisdictionNS      = "NS"
	JurisdictionNT      = "NT"
	JurisdictionNU      = "NU"
	JurisdictionON      = "ON"
	JurisdictionPE      = "PE"
	JurisdictionQC      = "QC"
	JurisdictionSK      = "SK"
	JurisdictionYT      = "YT"
)

var jurisdictions = map[string]bool{
	JurisdictionFederal: true,
	JurisdictionAB:      true,
	JurisdictionBC:      true,
	JurisdictionMB:      true,
	JurisdictionNB:      true,
	JurisdictionNL:      true,
	JurisdictionNS:      true,
	JurisdictionNT:      true,
	JurisdictionNU:      true,
	JurisdictionON:      true,
	JurisdictionPE:      true,
	JurisdictionQC:      true,
	JurisdictionSK:      true,
	JurisdictionYT:      true,
}

// IsValidJurisdiction reports whether code is FEDERAL or a known
// provincial/territorial code.
func IsValidJurisdiction(code string) bool {
	return jurisdictions[code]
}

// TaxBracket is one row of a progressive bracket table. A nil UpperBound
// marks the unbounded top bracket.
type TaxBracket struct {
	UpperBound   *decimal.Decimal `json:"upper_bound"`
	MarginalRate decimal.Decimal  `json:"marginal_rate"`
}

// BracketList is stored as a JSONB column on rate_tables.
type BracketList []TaxBracket

// RateTable holds the statutory deduction parameters for one jurisdiction
// and tax year. Tables are created and replaced by an external upload
// process; the engine only reads them. At most one table is active per
// (jurisdiction, tax_year).
type RateTable struct {
	ID                   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaxYear              int             `gorm:"not null;index:idx_rate_tables_key" json:"tax_year"`
	Jurisdiction         string          `gorm:"type:varchar(10);not null;index:idx_rate_tables_key" json:"jurisdiction"`
	IsActive             bool            `gorm:"not null;default:false;index" json:"is_active"`
	CPPRate              decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"cpp_rate"`
	CPPBasicExemption    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cpp_basic_exemption"`
	CPPAnnualMax         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cpp_annual_max"` // annual pensionable earnings ceiling
	EIRate               decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"ei_rate"`
	EIAnnualMaxInsurable decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"ei_annual_max_insurable"`
	EIEmployerMultiplier decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"ei_employer_multiplier"`
	BasicPersonalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"basic_personal_amount"`
	Brackets             BracketList     `gorm:"type:jsonb;serializer:json" json:"brackets"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// CPPMaxContribution returns the statutory annual employee CPP ceiling.
func (t *RateTable) CPPMaxContribution() decimal.Decimal {
	return t.CPPAnnualMax.Mul(t.CPPRate)
}

// EIMaxPremium returns the statutory annual employee EI premium ceiling.
func (t *RateTable) EIMaxPremium() decimal.Decimal {
	return t.EIAnnualMaxInsurable.Mul(t.EIRate)
}

// Validate rejects malformed tables before they can reach a calculation.
// Brackets must be sorted strictly ascending by upper bound, end with a
// single unbounded bracket, and carry weakly increasing marginal rates.
func (t *RateTable) Validate() error {
	if t.TaxYear <= 0 {
		return fmt.Errorf("rate table %s: tax_year must be positive", t.ID)
	}
	if !IsValidJurisdiction(t.Jurisdiction) {
		return fmt.Errorf("rate table %s: unknown jurisdiction %q", t.ID, t.Jurisdiction)
	}
	for name, v := range map[string]decimal.Decimal{
		"cpp_rate":                t.CPPRate,
		"cpp_basic_exemption":     t.CPPBasicExemption,
		"cpp_annual_max":          t.CPPAnnualMax,
		"ei_rate":                 t.EIRate,
		"ei_annual_max_insurable": t.EIAnnualMaxInsurable,
		"basic_personal_amount":   t.BasicPersonalAmount,
	} {
		if v.IsNegative() {
			return fmt.Errorf("rate table %s: %s must not be negative", t.ID, name)
		}
	}
	if t.EIEmployerMultiplier.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("rate table %s: ei_employer_multiplier must be at least 1", t.ID)
	}
	if t.CPPAnnualMax.LessThan(t.CPPBasicExemption) {
		return fmt.Errorf("rate table %s: cpp_annual_max below cpp_basic_exemption", t.ID)
	}

	if len(t.Brackets) == 0 {
		return fmt.Errorf("rate table %s: bracket list is empty", t.ID)
	}
	for i, b := range t.Brackets {
		if b.MarginalRate.IsNegative() {
			return fmt.Errorf("rate table %s: bracket %d has a negative marginal rate", t.ID, i)
		}
		if i > 0 && b.MarginalRate.LessThan(t.Brackets[i-1].MarginalRate) {
			return fmt.Errorf("rate table %s: marginal rate decreases at bracket %d", t.ID, i)
		}
		last := i == len(t.Brackets)-1
		if last {
			if b.UpperBound != nil {
				return fmt.Errorf("rate table %s: final bracket must be unbounded", t.ID)
			}
			continue
		}
		if b.UpperBound == nil {
			return fmt.Errorf("rate table %s: only the final bracket may be unbounded", t.ID)
		}
		if b.UpperBound.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("rate table %s: bracket %d upper bound must be positive", t.ID, i)
		}
		if i > 0 && b.UpperBound.LessThanOrEqual(*t.Brackets[i-1].UpperBound) {
			return fmt.Errorf("rate table %s: bracket upper bounds not strictly ascending at bracket %d", t.ID, i)
		}
	}

	return nil
}
