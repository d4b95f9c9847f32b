package pipeline

import "strings"

// ValidationResult partitions the inventory into valid and invalid rows.
// Invalid rows are excluded from all downstream aggregation but retained
// for reporting.
type ValidationResult struct {
	Total   int
	Valid   []ValidatedUnitRecord
	Invalid []ValidatedUnitRecord
}

// Validate classifies every inventory row. A row is valid iff its account
// id is non-empty and not the literal "0"; no other field is required.
// State is derived from the presence of a deactivation date.
func Validate(records []UnitRecord) ValidationResult {
	res := ValidationResult{Total: len(records)}
	for _, r := range records {
		v := ValidatedUnitRecord{
			UnitRecord: r,
			IsValid:    isValidAccountID(r.AccountID),
			State:      stateOf(r),
		}
		if v.IsValid {
			res.Valid = append(res.Valid, v)
		} else {
			res.Invalid = append(res.Invalid, v)
		}
	}
	return res
}

func isValidAccountID(id string) bool {
	s := strings.TrimSpace(id)
	return s != "" && s != "0"
}

func stateOf(r UnitRecord) UnitState {
	if strings.TrimSpace(r.DeactivatedAt) == "" {
		return StateActive
	}
	return StateDeactivated
}
