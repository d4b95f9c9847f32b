package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unitdash/internal/pipeline"
)

const header = "Cuenta,Usuario,Nombre Comercial,Costo,Tipo,Observaciones\n"

func TestParseCleansCurrencyAndSeparators(t *testing.T) {
	csv := header +
		`A-1,owner,Acme,"$1,234.50",Mensual,ok` + "\n" +
		"B-2,owner,Beta, $99 ,Anual,\n"

	res, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, 0, res.DroppedRows)

	a := res.Entries[0]
	assert.Equal(t, "A-1", a.AccountID)
	assert.Equal(t, "Acme", a.CommercialName)
	require.NotNil(t, a.UnitCost)
	assert.Equal(t, 1234.50, *a.UnitCost)
	assert.Equal(t, "Mensual", a.Cadence)

	b := res.Entries[1]
	require.NotNil(t, b.UnitCost)
	assert.Equal(t, 99.0, *b.UnitCost)
	assert.Equal(t, "Anual", b.Cadence)
}

func TestParseDefaultsBlankCadenceToMensual(t *testing.T) {
	res, err := Parse(strings.NewReader(header + "A-1,,,10,,\n"))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, DefaultCadence, res.Entries[0].Cadence)
}

func TestParseDropsNegativeAndUnparseableCosts(t *testing.T) {
	csv := header +
		"good,,,50,Mensual,\n" +
		"neg,,,-10,Mensual,\n" +
		"junk,,,n/a,Mensual,\n" +
		"blank,,,,Mensual,\n"

	res, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "good", res.Entries[0].AccountID)
	assert.Equal(t, 3, res.DroppedRows)
	require.Len(t, res.DroppedSamples, 3)
	assert.Contains(t, res.DroppedSamples[1], "junk")
}

func TestParseToleratesBOMAndPaddedHeaders(t *testing.T) {
	csv := "\uFEFF Cuenta ,Usuario,Nombre Comercial, Costo ,Tipo,Observaciones\nA,,,5,Mensual,\n"
	res, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "A", res.Entries[0].AccountID)
}

func TestParseMissingColumnsIsSchemaMismatch(t *testing.T) {
	csv := "Cuenta,Usuario,Costo\nA,o,5\n"
	_, err := Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "Nombre Comercial")
	assert.Contains(t, err.Error(), "Tipo")
}

func TestParseEmptyBodyYieldsNoEntries(t *testing.T) {
	res, err := Parse(strings.NewReader(header))
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Equal(t, 0, res.DroppedRows)
}
