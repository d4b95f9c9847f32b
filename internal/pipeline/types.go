// Package pipeline reconciles a client/unit inventory against a cost
// catalog in a single in-memory pass: validation, monthly cost
// normalization, a row-preserving left join and summary aggregation.
package pipeline

import "errors"

// UnitState is the lifecycle of a provisioned unit.
type UnitState string

const (
	StateActive      UnitState = "Active"
	StateDeactivated UnitState = "Deactivated"
)

var (
	// ErrSchemaMismatch marks a required column missing from an input
	// dataset. Fatal to the stage that detected it.
	ErrSchemaMismatch = errors.New("required columns missing")

	// ErrNoValidRecords is returned when validation leaves nothing to
	// aggregate. Downstream stages are skipped.
	ErrNoValidRecords = errors.New("no valid records after validation")
)

// UnitRecord is one inventory row as supplied by the source collaborator.
// DeactivatedAt holds the raw date text; empty means the unit is active.
type UnitRecord struct {
	AccountID     string `json:"account_id"`
	DisplayName   string `json:"display_name"`
	DeactivatedAt string `json:"deactivated_at,omitempty"`
	Platform      string `json:"origin_platform"`
}

// ValidatedUnitRecord is a UnitRecord with its validity verdict and
// lifecycle state attached.
type ValidatedUnitRecord struct {
	UnitRecord
	IsValid bool      `json:"is_valid"`
	State   UnitState `json:"state"`
}

// CatalogEntry is one cleaned cost-catalog row. UnitCost is nil when the
// catalog carried no usable cost for the account.
type CatalogEntry struct {
	AccountID      string   `json:"account_id"`
	Owner          string   `json:"owner,omitempty"`
	CommercialName string   `json:"commercial_name,omitempty"`
	UnitCost       *float64 `json:"unit_cost"`
	Cadence        string   `json:"billing_cadence,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// EnrichedUnitRecord is the join output consumed by aggregation. Every
// validated record yields exactly one enriched record, matched or not.
type EnrichedUnitRecord struct {
	ValidatedUnitRecord
	MonthlyCost      *float64 `json:"monthly_cost"`
	CadenceLabel     string   `json:"billing_cadence_label"`
	DeactivationLoss float64  `json:"deactivation_loss"`
}
