// Package source reads the unit inventory out of an uploaded SQLite
// database. It owns table discovery, the required-column schema check
// and row extraction; everything past that is the pipeline's business.
package source

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"unitdash/internal/pipeline"
)

// RequiredColumns are the inventory columns, required by name.
var RequiredColumns = []string{"Cliente_Cuenta", "Nombre", "Fecha_de_Desactivacion", "Origen"}

// PreferredTable is loaded when present; otherwise the first user table.
const PreferredTable = "main"

// DB wraps an open inventory database.
type DB struct {
	db *sql.DB
}

// Open opens the SQLite database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error { return d.db.Close() }

// Tables lists the user tables in the database.
func (d *DB) Tables() ([]string, error) {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Columns lists the column names of a table.
func (d *DB) Columns(table string) ([]string, error) {
	rows, err := d.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("table info %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// LoadUnits extracts the inventory rows from a table, restricted to the
// four required columns. A missing required column fails the load with
// pipeline.ErrSchemaMismatch. Rows without a display name are excluded
// at extraction, matching the source query contract; rows with empty or
// zero account ids are kept so the validator can count them.
func (d *DB) LoadUnits(table string) ([]pipeline.UnitRecord, error) {
	cols, err := d.Columns(table)
	if err != nil {
		return nil, err
	}
	if missing := missingColumns(cols); len(missing) > 0 {
		return nil, fmt.Errorf("table %s %w: %s", table, pipeline.ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	query := fmt.Sprintf(
		"SELECT Cliente_Cuenta, Nombre, Fecha_de_Desactivacion, Origen FROM %s WHERE Nombre IS NOT NULL AND Nombre != ''",
		quoteIdent(table),
	)
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("load units from %s: %w", table, err)
	}
	defer rows.Close()

	var units []pipeline.UnitRecord
	for rows.Next() {
		var account, name, deactivated, platform sql.NullString
		if err := rows.Scan(&account, &name, &deactivated, &platform); err != nil {
			return nil, fmt.Errorf("load units from %s: %w", table, err)
		}
		units = append(units, pipeline.UnitRecord{
			AccountID:     strings.TrimSpace(account.String),
			DisplayName:   strings.TrimSpace(name.String),
			DeactivatedAt: strings.TrimSpace(deactivated.String),
			Platform:      strings.TrimSpace(platform.String),
		})
	}
	return units, rows.Err()
}

// PickTable selects the table to analyze: an explicit request wins, then
// the preferred table when present, then the first user table.
func PickTable(tables []string, requested, preferred string) (string, error) {
	if len(tables) == 0 {
		return "", fmt.Errorf("no tables found in database")
	}
	if requested != "" {
		for _, t := range tables {
			if t == requested {
				return t, nil
			}
		}
		return "", fmt.Errorf("table %q not found in database", requested)
	}
	if preferred == "" {
		preferred = PreferredTable
	}
	for _, t := range tables {
		if t == preferred {
			return t, nil
		}
	}
	return tables[0], nil
}

func missingColumns(cols []string) []string {
	have := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		have[c] = struct{}{}
	}
	var missing []string
	for _, want := range RequiredColumns {
		if _, ok := have[want]; !ok {
			missing = append(missing, want)
		}
	}
	return missing
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
