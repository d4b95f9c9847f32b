package pipeline

import "strings"

// IntegrateCosts left-joins validated unit records to catalog entries by
// account id. Every input record yields exactly one output record; an
// unmatched record keeps nil cost fields and the Unspecified cadence
// label. Negative catalog costs are coerced to nil rather than
// propagated. With no catalog at all the join degenerates to a
// passthrough that still populates the cost fields, so aggregation sees
// a uniform shape either way.
func IntegrateCosts(records []ValidatedUnitRecord, entries []CatalogEntry) []EnrichedUnitRecord {
	index := indexCatalog(entries)
	out := make([]EnrichedUnitRecord, 0, len(records))
	for _, r := range records {
		e := EnrichedUnitRecord{
			ValidatedUnitRecord: r,
			CadenceLabel:        CadenceUnspecified,
		}
		if entry, ok := index[strings.TrimSpace(r.AccountID)]; ok {
			cost := entry.UnitCost
			if cost != nil && *cost < 0 {
				cost = nil
			}
			e.MonthlyCost = NormalizeMonthlyCost(cost, entry.Cadence)
			if label := strings.TrimSpace(entry.Cadence); label != "" {
				e.CadenceLabel = label
			}
		}
		if r.State == StateDeactivated && e.MonthlyCost != nil {
			e.DeactivationLoss = *e.MonthlyCost
		}
		out = append(out, e)
	}
	return out
}

// indexCatalog builds the account → entry lookup for the join. The first
// entry for an account wins; later duplicates are ignored so the left
// join stays row-preserving.
func indexCatalog(entries []CatalogEntry) map[string]CatalogEntry {
	index := make(map[string]CatalogEntry, len(entries))
	for _, entry := range entries {
		key := strings.TrimSpace(entry.AccountID)
		if key == "" {
			continue
		}
		if _, exists := index[key]; exists {
			continue
		}
		index[key] = entry
	}
	return index
}
