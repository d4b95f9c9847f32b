package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePartitionsByAccountID(t *testing.T) {
	records := []UnitRecord{
		{AccountID: "A-100", DisplayName: "Unit 1", Platform: "north"},
		{AccountID: "", DisplayName: "Unit 2", Platform: "north"},
		{AccountID: "0", DisplayName: "Unit 3", Platform: "south"},
		{AccountID: "  ", DisplayName: "Unit 4", Platform: "south"},
		{AccountID: "B-200", DisplayName: "Unit 5", DeactivatedAt: "2024-03-01", Platform: "south"},
	}

	res := Validate(records)

	require.Equal(t, 5, res.Total)
	require.Len(t, res.Valid, 2)
	require.Len(t, res.Invalid, 3)

	assert.Equal(t, "A-100", res.Valid[0].AccountID)
	assert.Equal(t, StateActive, res.Valid[0].State)
	assert.Equal(t, "B-200", res.Valid[1].AccountID)
	assert.Equal(t, StateDeactivated, res.Valid[1].State)

	for _, inv := range res.Invalid {
		assert.False(t, inv.IsValid)
	}
}

func TestValidateNoOtherFieldRequired(t *testing.T) {
	res := Validate([]UnitRecord{{AccountID: "C-1"}})
	require.Len(t, res.Valid, 1)
	assert.True(t, res.Valid[0].IsValid)
	assert.Equal(t, StateActive, res.Valid[0].State)
}

func TestValidateEmptyInput(t *testing.T) {
	res := Validate(nil)
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.Valid)
	assert.Empty(t, res.Invalid)
}
