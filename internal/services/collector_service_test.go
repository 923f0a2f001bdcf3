package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leehee16/monitoring-task-automation/internal/models"
)

var runStart = time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)

func TestCollector_BeginRejectsConcurrentRun(t *testing.T) {
	collector := NewCollectorService()

	require.NoError(t, collector.Begin(runStart))
	assert.ErrorIs(t, collector.Begin(runStart), ErrRunActive)

	collector.Finalize(runStart)
	assert.NoError(t, collector.Begin(runStart))
}

func TestCollector_AddUserFirstRecordWins(t *testing.T) {
	collector := NewCollectorService()
	require.NoError(t, collector.Begin(runStart))

	first := collector.AddUser(map[string]any{"fbUid": "u1", "nick": "alpha"}, runStart)
	second := collector.AddUser(map[string]any{"fbUid": "u1", "nick": "beta"}, runStart)

	assert.Same(t, first, second)
	assert.Equal(t, "alpha", collector.GetUser("u1").Nickname)
	assert.Len(t, collector.Records(), 1)
}

func TestCollector_AddCapture(t *testing.T) {
	collector := NewCollectorService()
	require.NoError(t, collector.Begin(runStart))
	collector.AddUser(map[string]any{"fbUid": "u1"}, runStart)

	require.NoError(t, collector.AddCapture("u1", models.CaptureEvent{Date: "20240110", ImageCount: 3}))
	require.NoError(t, collector.AddCapture("u1", models.CaptureEvent{Date: "20240111", ImageCount: 5}))

	record := collector.GetUser("u1")
	assert.Equal(t, 8, record.Metrics.TotalImages)
	assert.Equal(t, []string{"20240110", "20240111"}, record.Metrics.CapturedDates)
}

func TestCollector_AddCaptureWithoutRun(t *testing.T) {
	collector := NewCollectorService()
	err := collector.AddCapture("u1", models.CaptureEvent{Date: "20240110"})
	assert.ErrorIs(t, err, ErrNoActiveRun)
}

func TestCollector_AddCaptureForUnknownUserIsDropped(t *testing.T) {
	collector := NewCollectorService()
	require.NoError(t, collector.Begin(runStart))

	assert.NoError(t, collector.AddCapture("ghost", models.CaptureEvent{Date: "20240110"}))
	assert.Empty(t, collector.Records())
}

func TestCollector_AddCaptureNegativeCount(t *testing.T) {
	collector := NewCollectorService()
	require.NoError(t, collector.Begin(runStart))
	collector.AddUser(map[string]any{"fbUid": "u1"}, runStart)

	err := collector.AddCapture("u1", models.CaptureEvent{Date: "20240110", ImageCount: -1})
	assert.ErrorIs(t, err, models.ErrInvariant)
}

func TestCollector_FinalizeMetadata(t *testing.T) {
	collector := NewCollectorService()
	require.NoError(t, collector.Begin(runStart))

	collector.AddUser(map[string]any{"fbUid": "u1"}, runStart)
	collector.AddUser(map[string]any{"fbUid": "u2"}, runStart)
	collector.MarkFiltered()

	end := runStart.Add(2 * time.Minute)
	meta := collector.Finalize(end)

	assert.Equal(t, runStart, meta.CollectionStartTime)
	assert.Equal(t, end, meta.CollectionEndTime)
	assert.Equal(t, 2, meta.TotalRecords)
	assert.Equal(t, 1, meta.FilteredRecords)
	assert.False(t, collector.Active())
}

func TestCollector_BeginResetsPreviousRun(t *testing.T) {
	collector := NewCollectorService()
	require.NoError(t, collector.Begin(runStart))
	collector.AddUser(map[string]any{"fbUid": "u1"}, runStart)
	collector.Finalize(runStart)

	require.NoError(t, collector.Begin(runStart.AddDate(0, 0, 7)))
	assert.Empty(t, collector.Records())
	assert.Nil(t, collector.GetUser("u1"))
}

func TestCollector_Statistics(t *testing.T) {
	collector := NewCollectorService()
	require.NoError(t, collector.Begin(runStart))

	collector.AddUser(map[string]any{"fbUid": "u1", "country": "KR", "type": "police", "gender": "F"}, runStart)
	collector.AddUser(map[string]any{"fbUid": "u2", "country": "KR", "type": "army", "gender": "M"}, runStart)
	require.NoError(t, collector.AddCapture("u1", models.CaptureEvent{Date: "20240110", ImageCount: 4}))

	stats := collector.Statistics()
	assert.Equal(t, map[string]int{"KR": 2}, stats.CountryDistribution)
	assert.Equal(t, map[string]int{"police": 1, "army": 1}, stats.TypeDistribution)
	require.Len(t, stats.ActivityPatterns, 2)
	assert.Equal(t, 4, stats.ActivityPatterns[0].TotalImages)
	assert.Equal(t, 1, stats.ActivityPatterns[0].ActiveDays)
}
