package source

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unitdash/internal/pipeline"
)

func buildTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE main (
			Cliente_Cuenta TEXT,
			Nombre TEXT,
			Fecha_de_Desactivacion TEXT,
			Origen TEXT
		);
		CREATE TABLE notes (body TEXT);
	`)
	require.NoError(t, err)

	rows := [][4]any{
		{"A-1", "Unit one", nil, "north"},
		{"A-1", "Unit two", "2024-01-10", "north"},
		{"0", "Zero account", nil, "south"},
		{"", "Empty account", nil, "south"},
		{"B-2", "", nil, "south"}, // no display name: excluded at extraction
		{nil, "Null account", nil, "south"},
	}
	for _, r := range rows {
		_, err = db.Exec(
			"INSERT INTO main (Cliente_Cuenta, Nombre, Fecha_de_Desactivacion, Origen) VALUES (?, ?, ?, ?)",
			r[0], r[1], r[2], r[3],
		)
		require.NoError(t, err)
	}
	return path
}

func TestTablesListsUserTables(t *testing.T) {
	db, err := Open(buildTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	tables, err := db.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "notes"}, tables)
}

func TestLoadUnitsKeepsInvalidAccountsDropsNamelessRows(t *testing.T) {
	db, err := Open(buildTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	units, err := db.LoadUnits("main")
	require.NoError(t, err)
	require.Len(t, units, 5)

	assert.Equal(t, pipeline.UnitRecord{
		AccountID:   "A-1",
		DisplayName: "Unit one",
		Platform:    "north",
	}, units[0])
	assert.Equal(t, "2024-01-10", units[1].DeactivatedAt)

	// Empty, zero and NULL account ids survive extraction so the
	// validator can count them.
	accounts := make([]string, 0, len(units))
	for _, u := range units {
		accounts = append(accounts, u.AccountID)
	}
	assert.Contains(t, accounts, "0")
	assert.Contains(t, accounts, "")
}

func TestLoadUnitsSchemaMismatch(t *testing.T) {
	db, err := Open(buildTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.LoadUnits("notes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "Cliente_Cuenta")
}

func TestPickTable(t *testing.T) {
	tables := []string{"archive", "main", "zebra"}

	got, err := PickTable(tables, "", "")
	require.NoError(t, err)
	assert.Equal(t, "main", got)

	got, err = PickTable(tables, "zebra", "")
	require.NoError(t, err)
	assert.Equal(t, "zebra", got)

	got, err = PickTable([]string{"only"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "only", got)

	got, err = PickTable(tables, "", "archive")
	require.NoError(t, err)
	assert.Equal(t, "archive", got)

	_, err = PickTable(tables, "missing", "")
	assert.Error(t, err)

	_, err = PickTable(nil, "", "")
	assert.Error(t, err)
}
