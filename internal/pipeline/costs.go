package pipeline

import "strings"

// CadenceUnspecified is the label attached to records whose catalog row
// carried no billing cadence, or that matched no catalog row at all.
const CadenceUnspecified = "Unspecified"

// Canonical billing cadences. The catalog data carries Spanish labels,
// so both spellings are recognized.
const (
	cadenceMonthly    = "monthly"
	cadenceSemiannual = "semiannual"
	cadenceAnnual     = "annual"
)

var cadenceAliases = map[string]string{
	"monthly":    cadenceMonthly,
	"mensual":    cadenceMonthly,
	"semiannual": cadenceSemiannual,
	"semestral":  cadenceSemiannual,
	"annual":     cadenceAnnual,
	"anual":      cadenceAnnual,
}

// NormalizeMonthlyCost converts a raw catalog cost plus billing cadence
// into a per-month equivalent.
//
// When either input is absent the raw cost passes through unchanged:
// the input is ambiguous, not wrong. A recognized cadence divides the
// cost down to monthly (semiannual by 6, annual by 12, exact division).
// An unrecognized cadence yields nil; the record stays, cost-unknown.
//
// The function is pure and idempotent for monthly input.
func NormalizeMonthlyCost(cost *float64, cadence string) *float64 {
	if cost == nil || strings.TrimSpace(cadence) == "" {
		return copyCost(cost)
	}
	switch canonicalCadence(cadence) {
	case cadenceMonthly:
		return copyCost(cost)
	case cadenceSemiannual:
		v := *cost / 6
		return &v
	case cadenceAnnual:
		v := *cost / 12
		return &v
	default:
		return nil
	}
}

func canonicalCadence(cadence string) string {
	return cadenceAliases[strings.ToLower(strings.TrimSpace(cadence))]
}

func copyCost(cost *float64) *float64 {
	if cost == nil {
		return nil
	}
	v := *cost
	return &v
}
