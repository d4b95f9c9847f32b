// Command analyze-units runs the inventory/cost reconciliation pipeline
// once over a SQLite inventory database and an optional cost-catalog CSV,
// printing headline figures and optionally writing the full JSON report.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"unitdash/internal/catalog"
	"unitdash/internal/pipeline"
	"unitdash/internal/source"
)

func main() {
	dbPath := flag.String("db", "", "Path to the SQLite inventory database")
	table := flag.String("table", "", "Inventory table (default: 'main' if present, else first table)")
	costsPath := flag.String("costs", "", "Optional cost-catalog CSV")
	outputJSON := flag.String("output-json", "", "Optional path to write the JSON report")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("missing -db")
	}

	db, err := source.Open(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	tables, err := db.Tables()
	if err != nil {
		log.Fatalf("list tables: %v", err)
	}
	picked, err := source.PickTable(tables, *table, "")
	if err != nil {
		log.Fatalf("pick table: %v", err)
	}
	units, err := db.LoadUnits(picked)
	if err != nil {
		log.Fatalf("load units: %v", err)
	}

	input := pipeline.Input{Units: units, SourceTable: picked}
	if *costsPath != "" {
		f, err := os.Open(*costsPath)
		if err != nil {
			log.Fatalf("open costs file: %v", err)
		}
		parsed, perr := catalog.Parse(f)
		f.Close()
		if perr != nil {
			log.Fatalf("parse costs file: %v", perr)
		}
		if parsed.Entries == nil {
			parsed.Entries = []pipeline.CatalogEntry{}
		}
		input.Catalog = parsed.Entries
		input.CatalogQuality = &pipeline.CatalogQuality{
			DroppedRows:    parsed.DroppedRows,
			DroppedSamples: parsed.DroppedSamples,
		}
		for _, sample := range parsed.DroppedSamples {
			fmt.Fprintf(os.Stderr, "warning: dropped catalog row: %s\n", sample)
		}
	}

	report, err := pipeline.Run(input)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoValidRecords) {
			fmt.Printf("Table: %s\n", picked)
			fmt.Printf("Records read: %d\n", report.Validation.TotalRecords)
			fmt.Printf("Valid records: 0\n")
			log.Fatal("nothing to aggregate: no valid records")
		}
		log.Fatalf("pipeline: %v", err)
	}

	if *outputJSON != "" {
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatalf("json encode: %v", err)
		}
		if dir := filepath.Dir(*outputJSON); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Fatalf("mkdir: %v", err)
			}
		}
		if err := os.WriteFile(*outputJSON, append(payload, '\n'), 0o644); err != nil {
			log.Fatalf("write report: %v", err)
		}
		fmt.Printf("Wrote JSON report: %s\n", *outputJSON)
	}

	v := report.Validation
	fmt.Printf("Table: %s\n", picked)
	fmt.Printf("Records read: %d\n", v.TotalRecords)
	fmt.Printf("Valid records: %d (%.1f%%)\n", v.ValidRecords, v.ValidPercent)
	fmt.Printf("Invalid records: %d (%.1f%%)\n", v.InvalidRecords, v.InvalidPercent)
	fmt.Printf("Platforms: %d\n", platformCount(report.Platforms))
	fmt.Printf("Clients: %d\n", len(report.ClientCosts))
	if report.CatalogLoaded {
		fmt.Printf("Catalog entries joined: yes\n")
		if report.CatalogQuality != nil && report.CatalogQuality.DroppedRows > 0 {
			fmt.Printf("Catalog rows dropped: %d\n", report.CatalogQuality.DroppedRows)
		}
	} else {
		fmt.Printf("Catalog entries joined: no (cost fields null)\n")
	}
}

func platformCount(summaries []pipeline.PlatformSummary) int {
	n := 0
	for _, s := range summaries {
		if s.Platform != pipeline.TotalPlatformLabel {
			n++
		}
	}
	return n
}
