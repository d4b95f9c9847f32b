package pipeline

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Aggregation thresholds.
const (
	// TopClientLimit caps every client ranking.
	TopClientLimit = 10
	// ActivityRatioMinUnits is the volume floor for the active-ratio
	// ranking. It keeps a 1-unit, 100%-active client from dominating.
	ActivityRatioMinUnits = 5
)

// TotalPlatformLabel names the synthetic row summing all platforms.
const TotalPlatformLabel = "TOTAL"

// PlatformSummary aggregates unit counts for one originating platform.
type PlatformSummary struct {
	Platform      string  `json:"platform"`
	ActiveCount   int     `json:"active_count"`
	InactiveCount int     `json:"inactive_count"`
	TotalCount    int     `json:"total_count"`
	ActivePercent float64 `json:"active_percent"`
	UniqueClients int     `json:"unique_clients"`
}

// ClientCostSummary aggregates counts and normalized costs for one client.
// UnitCost and TotalImpact are nil when none of the client's records carry
// a usable monthly cost: a mean over an empty set, not zero.
type ClientCostSummary struct {
	ClientID      string   `json:"client_id"`
	ActiveCount   int      `json:"active_count"`
	InactiveCount int      `json:"inactive_count"`
	TotalCount    int      `json:"total_count"`
	UnitCost      *float64 `json:"unit_cost"`
	TotalImpact   *float64 `json:"total_impact"`
}

// ClientActivity is one row of a client ranking.
type ClientActivity struct {
	ClientID      string  `json:"client_id"`
	TotalCount    int     `json:"total_count"`
	ActiveCount   int     `json:"active_count"`
	ActivePercent float64 `json:"active_percent"`
}

// SizeBand classifies a client by its total unit count.
type SizeBand string

const (
	BandLarge  SizeBand = "Large"
	BandMedium SizeBand = "Medium"
	BandSmall  SizeBand = "Small"
	BandMicro  SizeBand = "Micro"
)

const (
	bandLargeMin  = 100
	bandMediumMin = 50
	bandSmallMin  = 10
)

// sizeBandOrder fixes the reporting order, largest first.
var sizeBandOrder = []SizeBand{BandLarge, BandMedium, BandSmall, BandMicro}

// SizeSegment is the client count inside one size band.
type SizeSegment struct {
	Band        SizeBand `json:"band"`
	ClientCount int      `json:"client_count"`
}

// CadenceCount is the unit count for one billing-cadence label.
type CadenceCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthlyCount is the deactivation count for one YYYY-MM bucket.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// PlatformDetail carries the per-platform drill-down metrics.
type PlatformDetail struct {
	Platform            string           `json:"platform"`
	UnitsPerClientMean  float64          `json:"avg_units_per_client"`
	MonthlyBillingTotal float64          `json:"monthly_billing_total"`
	ActiveUnitCostMean  *float64         `json:"active_unit_cost_mean"`
	CadenceCounts       []CadenceCount   `json:"cadence_counts"`
	TopByVolume         []ClientActivity `json:"top_by_volume"`
	TopByActiveRatio    []ClientActivity `json:"top_by_active_ratio"`
	SizeSegments        []SizeSegment    `json:"size_segments"`
	Deactivations       []MonthlyCount   `json:"deactivations_by_month"`
}

// SummarizeByPlatform groups valid records by originating platform and
// appends the synthetic TOTAL row. Every TOTAL column is a straight sum
// except UniqueClients, which is the dataset-wide distinct client count:
// a client present on several platforms must not be counted twice.
func SummarizeByPlatform(records []EnrichedUnitRecord) []PlatformSummary {
	type acc struct {
		active, inactive int
		clients          map[string]struct{}
	}
	byPlatform := make(map[string]*acc)
	allClients := make(map[string]struct{})
	for _, r := range records {
		if !r.IsValid {
			continue
		}
		a, ok := byPlatform[r.Platform]
		if !ok {
			a = &acc{clients: make(map[string]struct{})}
			byPlatform[r.Platform] = a
		}
		if r.State == StateActive {
			a.active++
		} else {
			a.inactive++
		}
		a.clients[r.AccountID] = struct{}{}
		allClients[r.AccountID] = struct{}{}
	}

	platforms := make([]string, 0, len(byPlatform))
	for p := range byPlatform {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	out := make([]PlatformSummary, 0, len(platforms)+1)
	totalActive, totalInactive := 0, 0
	for _, p := range platforms {
		a := byPlatform[p]
		total := a.active + a.inactive
		out = append(out, PlatformSummary{
			Platform:      p,
			ActiveCount:   a.active,
			InactiveCount: a.inactive,
			TotalCount:    total,
			ActivePercent: round1(percent(a.active, total)),
			UniqueClients: len(a.clients),
		})
		totalActive += a.active
		totalInactive += a.inactive
	}
	if len(out) == 0 {
		return out
	}
	grandTotal := totalActive + totalInactive
	out = append(out, PlatformSummary{
		Platform:      TotalPlatformLabel,
		ActiveCount:   totalActive,
		InactiveCount: totalInactive,
		TotalCount:    grandTotal,
		ActivePercent: round1(percent(totalActive, grandTotal)),
		UniqueClients: len(allClients),
	})
	return out
}

// SummarizeByClient groups valid records by account and derives the cost
// figures: UnitCost is the mean of the client's non-nil monthly costs and
// TotalImpact multiplies the active count by that unrounded mean. Both are
// rounded to 2 decimals here, at the summary stage only. Sorted by impact
// descending, priced clients before unpriced ones.
func SummarizeByClient(records []EnrichedUnitRecord) []ClientCostSummary {
	type acc struct {
		active, inactive int
		costSum          float64
		costN            int
	}
	byClient := make(map[string]*acc)
	for _, r := range records {
		if !r.IsValid {
			continue
		}
		a, ok := byClient[r.AccountID]
		if !ok {
			a = &acc{}
			byClient[r.AccountID] = a
		}
		if r.State == StateActive {
			a.active++
		} else {
			a.inactive++
		}
		if r.MonthlyCost != nil {
			a.costSum += *r.MonthlyCost
			a.costN++
		}
	}

	out := make([]ClientCostSummary, 0, len(byClient))
	for id, a := range byClient {
		s := ClientCostSummary{
			ClientID:      id,
			ActiveCount:   a.active,
			InactiveCount: a.inactive,
			TotalCount:    a.active + a.inactive,
		}
		if a.costN > 0 {
			mean := a.costSum / float64(a.costN)
			unit := round2(mean)
			impact := round2(float64(a.active) * mean)
			s.UnitCost = &unit
			s.TotalImpact = &impact
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.TotalImpact != nil && b.TotalImpact == nil:
			return true
		case a.TotalImpact == nil && b.TotalImpact != nil:
			return false
		case a.TotalImpact != nil && b.TotalImpact != nil && *a.TotalImpact != *b.TotalImpact:
			return *a.TotalImpact > *b.TotalImpact
		}
		if a.TotalCount != b.TotalCount {
			return a.TotalCount > b.TotalCount
		}
		return a.ClientID < b.ClientID
	})
	return out
}

// TopClientsByVolume ranks clients by total unit count, descending. No
// minimum threshold applies.
func TopClientsByVolume(records []EnrichedUnitRecord, n int) []ClientActivity {
	clients := activityByClient(records)
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].TotalCount != clients[j].TotalCount {
			return clients[i].TotalCount > clients[j].TotalCount
		}
		return clients[i].ClientID < clients[j].ClientID
	})
	return head(clients, n)
}

// TopClientsByActiveRatio ranks clients by active percentage, descending,
// with total volume as tie-break. Clients below the ActivityRatioMinUnits
// floor never enter the ranking.
func TopClientsByActiveRatio(records []EnrichedUnitRecord, n int) []ClientActivity {
	clients := activityByClient(records)
	eligible := clients[:0]
	for _, c := range clients {
		if c.TotalCount >= ActivityRatioMinUnits {
			eligible = append(eligible, c)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].ActivePercent != eligible[j].ActivePercent {
			return eligible[i].ActivePercent > eligible[j].ActivePercent
		}
		if eligible[i].TotalCount != eligible[j].TotalCount {
			return eligible[i].TotalCount > eligible[j].TotalCount
		}
		return eligible[i].ClientID < eligible[j].ClientID
	})
	return head(eligible, n)
}

// ClassifyClientSize maps a client's total unit count to its size band.
// Total over the client set: every count lands in exactly one band.
func ClassifyClientSize(totalUnits int) SizeBand {
	switch {
	case totalUnits >= bandLargeMin:
		return BandLarge
	case totalUnits >= bandMediumMin:
		return BandMedium
	case totalUnits >= bandSmallMin:
		return BandSmall
	default:
		return BandMicro
	}
}

// SegmentClientsBySize counts clients per size band. All four bands are
// always reported, largest first, so consumers get a stable shape.
func SegmentClientsBySize(records []EnrichedUnitRecord) []SizeSegment {
	counts := make(map[SizeBand]int, len(sizeBandOrder))
	for _, c := range activityByClient(records) {
		counts[ClassifyClientSize(c.TotalCount)]++
	}
	out := make([]SizeSegment, 0, len(sizeBandOrder))
	for _, band := range sizeBandOrder {
		out = append(out, SizeSegment{Band: band, ClientCount: counts[band]})
	}
	return out
}

// DeactivationsByMonth buckets deactivated valid units by the YYYY-MM of
// their deactivation date. Rows whose date text cannot be parsed are
// skipped, not failed.
func DeactivationsByMonth(records []EnrichedUnitRecord) []MonthlyCount {
	counts := make(map[string]int)
	for _, r := range records {
		if !r.IsValid || r.State != StateDeactivated {
			continue
		}
		t, ok := parseDeactivationDate(r.DeactivatedAt)
		if !ok {
			continue
		}
		counts[t.Format("2006-01")]++
	}
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]MonthlyCount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthlyCount{Month: m, Count: counts[m]})
	}
	return out
}

// DetailByPlatform computes the drill-down metrics for each platform:
// billing totals over active units, cadence distribution, platform-scoped
// rankings, segmentation and the deactivation trend.
func DetailByPlatform(records []EnrichedUnitRecord) []PlatformDetail {
	byPlatform := make(map[string][]EnrichedUnitRecord)
	for _, r := range records {
		if !r.IsValid {
			continue
		}
		byPlatform[r.Platform] = append(byPlatform[r.Platform], r)
	}
	platforms := make([]string, 0, len(byPlatform))
	for p := range byPlatform {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	out := make([]PlatformDetail, 0, len(platforms))
	for _, p := range platforms {
		rs := byPlatform[p]
		clients := make(map[string]struct{}, len(rs))
		cadences := make(map[string]int)
		billing := 0.0
		costN := 0
		for _, r := range rs {
			clients[r.AccountID] = struct{}{}
			cadences[r.CadenceLabel]++
			if r.State == StateActive && r.MonthlyCost != nil {
				billing += *r.MonthlyCost
				costN++
			}
		}
		d := PlatformDetail{
			Platform:            p,
			UnitsPerClientMean:  round2(safeDiv(float64(len(rs)), float64(len(clients)))),
			MonthlyBillingTotal: round2(billing),
			CadenceCounts:       sortedCadenceCounts(cadences),
			TopByVolume:         TopClientsByVolume(rs, TopClientLimit),
			TopByActiveRatio:    TopClientsByActiveRatio(rs, TopClientLimit),
			SizeSegments:        SegmentClientsBySize(rs),
			Deactivations:       DeactivationsByMonth(rs),
		}
		if costN > 0 {
			mean := round2(billing / float64(costN))
			d.ActiveUnitCostMean = &mean
		}
		out = append(out, d)
	}
	return out
}

func activityByClient(records []EnrichedUnitRecord) []ClientActivity {
	type acc struct{ total, active int }
	byClient := make(map[string]*acc)
	for _, r := range records {
		if !r.IsValid {
			continue
		}
		a, ok := byClient[r.AccountID]
		if !ok {
			a = &acc{}
			byClient[r.AccountID] = a
		}
		a.total++
		if r.State == StateActive {
			a.active++
		}
	}
	out := make([]ClientActivity, 0, len(byClient))
	for id, a := range byClient {
		out = append(out, ClientActivity{
			ClientID:      id,
			TotalCount:    a.total,
			ActiveCount:   a.active,
			ActivePercent: round1(percent(a.active, a.total)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

func sortedCadenceCounts(counts map[string]int) []CadenceCount {
	out := make([]CadenceCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, CadenceCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

var deactivationDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseDeactivationDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range deactivationDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func head(xs []ClientActivity, n int) []ClientActivity {
	if n >= 0 && len(xs) > n {
		return xs[:n]
	}
	return xs
}

func percent(part, total int) float64 {
	return safeDiv(float64(part), float64(total)) * 100
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
