package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// invalidSampleLimit bounds the invalid-row listing carried by the report.
const invalidSampleLimit = 50

// ValidationSummary carries the record-level validation counts.
type ValidationSummary struct {
	TotalRecords   int     `json:"total_records"`
	ValidRecords   int     `json:"valid_records"`
	InvalidRecords int     `json:"invalid_records"`
	ValidPercent   float64 `json:"valid_percent"`
	InvalidPercent float64 `json:"invalid_percent"`
}

// CatalogQuality reports rows the catalog collaborator dropped before the
// join (negative or unparseable costs), with a bounded sample.
type CatalogQuality struct {
	DroppedRows    int      `json:"dropped_rows"`
	DroppedSamples []string `json:"dropped_samples,omitempty"`
}

// Input is the pipeline entry parameters: two validated input collections
// plus run metadata. Catalog nil means no costs file was supplied; the
// join then degenerates to a passthrough.
type Input struct {
	Units          []UnitRecord
	Catalog        []CatalogEntry
	SourceTable    string
	CatalogQuality *CatalogQuality
}

// Report is the only externally consumed artifact of the pipeline.
type Report struct {
	ReportID         string                `json:"report_id"`
	GeneratedAt      time.Time             `json:"generated_at"`
	SourceTable      string                `json:"source_table,omitempty"`
	CatalogLoaded    bool                  `json:"catalog_loaded"`
	Validation       ValidationSummary     `json:"validation"`
	InvalidSample    []ValidatedUnitRecord `json:"invalid_sample,omitempty"`
	Platforms        []PlatformSummary     `json:"platform_summary"`
	ClientCosts      []ClientCostSummary   `json:"client_costs"`
	TopByVolume      []ClientActivity      `json:"top_by_volume"`
	TopByActiveRatio []ClientActivity      `json:"top_by_active_ratio"`
	SizeSegments     []SizeSegment         `json:"size_segments"`
	PlatformDetails  []PlatformDetail      `json:"platform_details"`
	Deactivations    []MonthlyCount        `json:"deactivations_by_month"`
	CatalogQuality   *CatalogQuality       `json:"catalog_quality,omitempty"`
}

// Run executes the full pipeline once over its own copy of the inputs:
// validation, cost integration, aggregation, report assembly. It returns
// ErrNoValidRecords when validation leaves nothing to aggregate; the
// report still carries the validation counts in that case.
func Run(in Input) (Report, error) {
	validation := Validate(in.Units)

	report := Report{
		ReportID:       uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		SourceTable:    in.SourceTable,
		CatalogLoaded:  in.Catalog != nil,
		Validation:     summarizeValidation(validation),
		InvalidSample:  sampleInvalid(validation.Invalid),
		CatalogQuality: in.CatalogQuality,
	}
	if len(validation.Valid) == 0 {
		return report, ErrNoValidRecords
	}

	enriched := IntegrateCosts(validation.Valid, in.Catalog)

	report.Platforms = SummarizeByPlatform(enriched)
	report.ClientCosts = SummarizeByClient(enriched)
	report.TopByVolume = TopClientsByVolume(enriched, TopClientLimit)
	report.TopByActiveRatio = TopClientsByActiveRatio(enriched, TopClientLimit)
	report.SizeSegments = SegmentClientsBySize(enriched)
	report.PlatformDetails = DetailByPlatform(enriched)
	report.Deactivations = DeactivationsByMonth(enriched)
	return report, nil
}

func summarizeValidation(v ValidationResult) ValidationSummary {
	return ValidationSummary{
		TotalRecords:   v.Total,
		ValidRecords:   len(v.Valid),
		InvalidRecords: len(v.Invalid),
		ValidPercent:   round1(percent(len(v.Valid), v.Total)),
		InvalidPercent: round1(percent(len(v.Invalid), v.Total)),
	}
}

func sampleInvalid(invalid []ValidatedUnitRecord) []ValidatedUnitRecord {
	if len(invalid) > invalidSampleLimit {
		invalid = invalid[:invalidSampleLimit]
	}
	return append([]ValidatedUnitRecord(nil), invalid...)
}
