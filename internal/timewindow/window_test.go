package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent_MidWeekReference(t *testing.T) {
	// Wednesday 2024-01-17 → previous ISO week is Mon 2024-01-08 .. Sun 2024-01-14
	now := time.Date(2024, 1, 17, 15, 30, 0, 0, time.UTC)
	e := Current(now)

	assert.Equal(t, "2024-01-08", e.Key())
	assert.Equal(t, "20240108-20240114", e.PartitionID())
}

func TestCurrent_MondayReference(t *testing.T) {
	// On a Monday the containing week has just started; the active epoch
	// is still the full week before it.
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	e := Current(now)

	assert.Equal(t, "2024-01-08", e.Key())
}

func TestCurrent_SundayReference(t *testing.T) {
	now := time.Date(2024, 1, 14, 23, 59, 59, 0, time.UTC)
	e := Current(now)

	assert.Equal(t, "2024-01-01", e.Key())
	assert.Equal(t, "20240101-20240107", e.PartitionID())
}

func TestCurrent_YearBoundary(t *testing.T) {
	// First days of 2024 belong to the ISO week starting Mon 2024-01-01;
	// the previous week starts in 2023.
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	e := Current(now)

	assert.Equal(t, "2023-12-25", e.Key())
	assert.Equal(t, "20231225-20231231", e.PartitionID())
}

func TestWeekKeyOf(t *testing.T) {
	d, err := ParseCompactDate("20240103")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", WeekKeyOf(d))

	d, err = ParseCompactDate("20240101")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", WeekKeyOf(d))
}

func TestParseKey_RoundTrip(t *testing.T) {
	e := Current(time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC))
	parsed, err := ParseKey(e.Key())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(e.Start))
}

func TestParseCompactDate_Invalid(t *testing.T) {
	_, err := ParseCompactDate("2024-01-01")
	assert.Error(t, err)

	_, err = ParseCompactDate("")
	assert.Error(t, err)
}
