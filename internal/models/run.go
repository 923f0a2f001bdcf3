package models

import "time"

// RunMetadata describes one collection execution.
type RunMetadata struct {
	CollectionStartTime time.Time `json:"collectionStartTime"`
	CollectionEndTime   time.Time `json:"collectionEndTime"`
	TotalRecords        int       `json:"totalRecords"`
	FilteredRecords     int       `json:"filteredRecords"`
}

// ActivityPattern is the per-user activity projection within run statistics.
type ActivityPattern struct {
	FbUID               string  `json:"fbUid"`
	TotalImages         int     `json:"totalImages"`
	AverageImagesPerDay float64 `json:"averageImagesPerDay"`
	ActiveDays          int     `json:"activeDays"`
}

// RunStats holds the frequency distributions and activity patterns
// computed over one run's records.
type RunStats struct {
	CountryDistribution map[string]int    `json:"countryDistribution"`
	TypeDistribution    map[string]int    `json:"typeDistribution"`
	GenderDistribution  map[string]int    `json:"genderDistribution"`
	ActivityPatterns    []ActivityPattern `json:"activityPatterns"`
}

// NewRunStats computes all distributions for a set of records. An empty
// input yields empty maps, never nil ones.
func NewRunStats(records []*UserRecord) *RunStats {
	stats := &RunStats{
		CountryDistribution: make(map[string]int),
		TypeDistribution:    make(map[string]int),
		GenderDistribution:  make(map[string]int),
		ActivityPatterns:    make([]ActivityPattern, 0, len(records)),
	}

	for _, u := range records {
		stats.CountryDistribution[u.Country]++
		stats.TypeDistribution[u.Type]++
		stats.GenderDistribution[u.Gender]++
		stats.ActivityPatterns = append(stats.ActivityPatterns, ActivityPattern{
			FbUID:               u.FbUID,
			TotalImages:         u.Metrics.TotalImages,
			AverageImagesPerDay: u.Metrics.AverageImagesPerDay,
			ActiveDays:          len(u.Metrics.CapturedDates),
		})
	}
	return stats
}

// RunArtifact is the per-run JSON document written into the week partition.
type RunArtifact struct {
	Metadata   *RunMetadata  `json:"metadata"`
	Users      []*UserRecord `json:"users"`
	Statistics *RunStats     `json:"statistics"`
}
