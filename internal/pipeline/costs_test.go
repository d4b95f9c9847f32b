package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestNormalizeMonthlyCost(t *testing.T) {
	cases := []struct {
		name    string
		cost    *float64
		cadence string
		want    *float64
	}{
		{"monthly unchanged", fptr(120), "Mensual", fptr(120)},
		{"monthly english", fptr(120), "Monthly", fptr(120)},
		{"semiannual divided by six", fptr(120), "Semestral", fptr(20)},
		{"semiannual english", fptr(120), "semiannual", fptr(20)},
		{"annual divided by twelve", fptr(120), "Anual", fptr(10)},
		{"annual english uppercase", fptr(120), "ANNUAL", fptr(10)},
		{"unknown cadence yields nil", fptr(120), "Trimestral", nil},
		{"absent cadence passes through", fptr(99.5), "", fptr(99.5)},
		{"absent cadence whitespace passes through", fptr(99.5), "   ", fptr(99.5)},
		{"absent cost passes through", nil, "Anual", nil},
		{"both absent", nil, "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeMonthlyCost(tc.cost, tc.cadence)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestNormalizeMonthlyCostIdempotentForMonthly(t *testing.T) {
	once := NormalizeMonthlyCost(fptr(42.37), "Monthly")
	require.NotNil(t, once)
	twice := NormalizeMonthlyCost(once, "Monthly")
	require.NotNil(t, twice)
	assert.Equal(t, *once, *twice)
}

func TestNormalizeMonthlyCostExactDivision(t *testing.T) {
	// Division is exact arithmetic; no rounding happens here.
	got := NormalizeMonthlyCost(fptr(100), "Anual")
	require.NotNil(t, got)
	assert.InDelta(t, 100.0/12.0, *got, 1e-15)
}

func TestNormalizeMonthlyCostDoesNotAliasInput(t *testing.T) {
	in := fptr(60)
	out := NormalizeMonthlyCost(in, "Mensual")
	require.NotNil(t, out)
	*out = 0
	assert.Equal(t, 60.0, *in)
}
