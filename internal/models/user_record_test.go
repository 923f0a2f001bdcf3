package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUser_AllFields(t *testing.T) {
	now := time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"id":        12345,
		"type":      "police",
		"fbUid":     "100001",
		"nick":      "observer1",
		"country":   "KR",
		"gender":    "M",
		"lastLogin": "2024-01-15 08:30",
	}

	u := NormalizeUser(raw, now)

	assert.Equal(t, "12345", u.ID)
	assert.Equal(t, "police", u.Type)
	assert.Equal(t, "100001", u.FbUID)
	assert.Equal(t, "observer1", u.Nickname)
	assert.Equal(t, "KR", u.Country)
	assert.Equal(t, "M", u.Gender)
	assert.Equal(t, "2024-01-15 08:30", u.LastLogin)
	assert.Equal(t, now, u.CollectedAt)
	assert.Empty(t, u.Captures)
	assert.Zero(t, u.Metrics.TotalImages)
}

func TestNormalizeUser_MissingFields(t *testing.T) {
	u := NormalizeUser(map[string]any{"fbUid": "100002"}, time.Now())

	assert.Equal(t, "100002", u.FbUID)
	assert.Empty(t, u.Nickname)
	assert.Empty(t, u.Country)
	assert.NotNil(t, u.Captures)
	assert.NotNil(t, u.Metrics.CapturedDates)
}

func TestAppendCapture_MetricsInvariant(t *testing.T) {
	u := NormalizeUser(map[string]any{"fbUid": "u1"}, time.Now())

	require.NoError(t, u.AppendCapture(CaptureEvent{Date: "20240101", ImageCount: 5}))
	require.NoError(t, u.AppendCapture(CaptureEvent{Date: "20240102", ImageCount: 3}))

	assert.Equal(t, 8, u.Metrics.TotalImages)
	assert.Equal(t, []string{"20240101", "20240102"}, u.Metrics.CapturedDates)
	assert.InDelta(t, 4.0, u.Metrics.AverageImagesPerDay, 1e-9)
}

func TestAppendCapture_DuplicateDateCountsOnce(t *testing.T) {
	u := NormalizeUser(map[string]any{"fbUid": "u1"}, time.Now())

	require.NoError(t, u.AppendCapture(CaptureEvent{Date: "20240101", ImageCount: 4}))
	require.NoError(t, u.AppendCapture(CaptureEvent{Date: "20240101", ImageCount: 2}))

	assert.Equal(t, 6, u.Metrics.TotalImages)
	assert.Len(t, u.Metrics.CapturedDates, 1)
	assert.InDelta(t, 6.0, u.Metrics.AverageImagesPerDay, 1e-9)
}

func TestAppendCapture_NegativeImageCount(t *testing.T) {
	u := NormalizeUser(map[string]any{"fbUid": "u1"}, time.Now())

	err := u.AppendCapture(CaptureEvent{Date: "20240101", ImageCount: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Zero(t, u.Metrics.TotalImages)
	assert.Empty(t, u.Metrics.CapturedDates)
}

func TestAppendCapture_NoDatesNoDivision(t *testing.T) {
	u := NormalizeUser(map[string]any{"fbUid": "u1"}, time.Now())
	assert.Zero(t, u.Metrics.AverageImagesPerDay)
}
