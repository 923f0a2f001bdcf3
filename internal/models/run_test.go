package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunStats_Empty(t *testing.T) {
	stats := NewRunStats(nil)

	assert.NotNil(t, stats.CountryDistribution)
	assert.NotNil(t, stats.TypeDistribution)
	assert.NotNil(t, stats.GenderDistribution)
	assert.NotNil(t, stats.ActivityPatterns)
	assert.Empty(t, stats.CountryDistribution)
	assert.Empty(t, stats.ActivityPatterns)
}

func TestNewRunStats_Distributions(t *testing.T) {
	mk := func(fbUID, country, typ, gender string) *UserRecord {
		u := NormalizeUser(map[string]any{
			"fbUid": fbUID, "country": country, "type": typ, "gender": gender,
		}, time.Now())
		return u
	}

	u1 := mk("u1", "KR", "police", "M")
	require.NoError(t, u1.AppendCapture(CaptureEvent{Date: "20240101", ImageCount: 5}))
	require.NoError(t, u1.AppendCapture(CaptureEvent{Date: "20240102", ImageCount: 3}))
	u2 := mk("u2", "KR", "civilian", "F")
	u3 := mk("u3", "JP", "police", "M")

	stats := NewRunStats([]*UserRecord{u1, u2, u3})

	assert.Equal(t, map[string]int{"KR": 2, "JP": 1}, stats.CountryDistribution)
	assert.Equal(t, map[string]int{"police": 2, "civilian": 1}, stats.TypeDistribution)
	assert.Equal(t, map[string]int{"M": 2, "F": 1}, stats.GenderDistribution)

	require.Len(t, stats.ActivityPatterns, 3)
	assert.Equal(t, "u1", stats.ActivityPatterns[0].FbUID)
	assert.Equal(t, 8, stats.ActivityPatterns[0].TotalImages)
	assert.Equal(t, 2, stats.ActivityPatterns[0].ActiveDays)
	assert.InDelta(t, 4.0, stats.ActivityPatterns[0].AverageImagesPerDay, 1e-9)
}
