package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, Day("2025-03-09"), d)

	_, err = ParseDay("9-Mar-25")
	assert.Error(t, err)
}

func TestDay_AddDays(t *testing.T) {
	d := MustDay("2024-02-28")

	next, err := d.AddDays(1)
	require.NoError(t, err)
	assert.Equal(t, Day("2024-02-29"), next, "leap day")

	prev, err := d.AddDays(-28)
	require.NoError(t, err)
	assert.Equal(t, Day("2024-01-31"), prev)
}

func TestDayOf_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2025, 1, 2, 5, 0, 0, 0, loc)
	assert.Equal(t, Day("2025-01-01"), DayOf(ts))
}

func TestDayRange_Days(t *testing.T) {
	r := DayRange{Start: "2025-12-30", End: "2026-01-02"}

	days, err := r.Days()
	require.NoError(t, err)
	assert.Equal(t, []Day{"2025-12-30", "2025-12-31", "2026-01-01", "2026-01-02"}, days)

	assert.True(t, r.Contains("2026-01-01"))
	assert.False(t, r.Contains("2026-01-03"))
	assert.Equal(t, "2025-12-30..2026-01-02", r.String())
}

func TestDayRange_Validate(t *testing.T) {
	assert.NoError(t, DayRange{Start: "2025-01-01", End: "2025-01-01"}.Validate())

	err := DayRange{Start: "2025-01-02", End: "2025-01-01"}.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	err = DayRange{Start: "bogus", End: "2025-01-01"}.Validate()
	assert.True(t, IsValidationError(err))
}

func TestEquivalenceEdge_Other(t *testing.T) {
	e := EquivalenceEdge{A: "H1", B: "H2"}

	other, ok := e.Other("H1")
	assert.True(t, ok)
	assert.Equal(t, ContentAddress("H2"), other)

	other, ok = e.Other("H2")
	assert.True(t, ok)
	assert.Equal(t, ContentAddress("H1"), other)

	_, ok = e.Other("H3")
	assert.False(t, ok)
}
