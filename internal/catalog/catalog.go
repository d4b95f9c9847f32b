// Package catalog parses cost-catalog CSV exports into cleaned entries
// for the reconciliation pipeline. Rows with negative or unparseable
// costs are dropped here, before the core ever sees them.
package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"unitdash/internal/pipeline"
)

// RequiredColumns are the catalog headers, required by name.
var RequiredColumns = []string{"Cuenta", "Usuario", "Nombre Comercial", "Costo", "Tipo", "Observaciones"}

// DefaultCadence is assumed when a row leaves Tipo blank.
const DefaultCadence = "Mensual"

// droppedSampleLimit bounds the per-parse sample of rejected rows.
const droppedSampleLimit = 10

// ParseResult is the cleaned catalog plus a data-quality tally of the
// rows rejected during cleaning.
type ParseResult struct {
	Entries        []pipeline.CatalogEntry
	DroppedRows    int
	DroppedSamples []string
}

// Parse reads a catalog CSV. A UTF-8 BOM is tolerated, header names are
// trimmed, and Costo values are cleaned of currency symbols and
// thousands separators before numeric coercion. Missing required columns
// are a schema contract violation and fail the whole parse; bad costs
// only drop their row.
func Parse(r io.Reader) (ParseResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return ParseResult{}, fmt.Errorf("read catalog: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return ParseResult{}, fmt.Errorf("read catalog header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	col, missing := indexHeader(header)
	if len(missing) > 0 {
		return ParseResult{}, fmt.Errorf("catalog %w: %s", pipeline.ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	var res ParseResult
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ParseResult{}, fmt.Errorf("read catalog row: %w", err)
		}
		account := strings.TrimSpace(field(rec, col["Cuenta"]))
		rawCost := field(rec, col["Costo"])
		cost, ok := parseCost(rawCost)
		if !ok || cost < 0 {
			res.DroppedRows++
			if len(res.DroppedSamples) < droppedSampleLimit {
				res.DroppedSamples = append(res.DroppedSamples, fmt.Sprintf("Cuenta=%s Costo=%q", account, strings.TrimSpace(rawCost)))
			}
			continue
		}
		cadence := strings.TrimSpace(field(rec, col["Tipo"]))
		if cadence == "" {
			cadence = DefaultCadence
		}
		c := cost
		res.Entries = append(res.Entries, pipeline.CatalogEntry{
			AccountID:      account,
			Owner:          strings.TrimSpace(field(rec, col["Usuario"])),
			CommercialName: strings.TrimSpace(field(rec, col["Nombre Comercial"])),
			UnitCost:       &c,
			Cadence:        cadence,
			Notes:          strings.TrimSpace(field(rec, col["Observaciones"])),
		})
	}
	return res, nil
}

func indexHeader(header []string) (map[string]int, []string) {
	col := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := col[h]; !seen {
			col[h] = i
		}
	}
	var missing []string
	for _, want := range RequiredColumns {
		if _, ok := col[want]; !ok {
			missing = append(missing, want)
		}
	}
	return col, missing
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// parseCost coerces a raw Costo cell to a number after stripping the
// currency symbol, thousands separators and surrounding whitespace.
func parseCost(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
