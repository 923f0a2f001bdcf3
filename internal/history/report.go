package history

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/leehee16/monitoring-task-automation/internal/models"
)

const recentActivityWindow = 4 * 7 * 24 * time.Hour

// Report is the read-only cross-history projection: users grouped by
// streak length and by total detections, plus everyone active within the
// trailing four weeks.
type Report struct {
	TotalUsers              int                   `json:"totalUsers"`
	UsersByConsecutiveWeeks map[int]int           `json:"usersByConsecutiveWeeks"`
	UsersByTotalDetections  map[int]int           `json:"usersByTotalDetections"`
	RecentActivity          []RecentActivityEntry `json:"recentActivity"`
}

type RecentActivityEntry struct {
	FbUID            string    `json:"fbUid"`
	LastUpdate       time.Time `json:"lastUpdate"`
	ConsecutiveWeeks int       `json:"consecutiveWeeks"`
	TotalDetections  int       `json:"totalDetections"`
	Type             string    `json:"type"`
	Country          string    `json:"country"`
}

// ClassificationSummary aggregates the externally supplied
// classifications across the ledger.
type ClassificationSummary struct {
	TotalClassified int                  `json:"totalClassified"`
	ByType          map[string]int       `json:"byType"`
	ByProblemWeeks  map[int]int          `json:"byProblemWeeks"`
	RecentProblems  []RecentProblemEntry `json:"recentProblems"`
}

type RecentProblemEntry struct {
	FbUID        string    `json:"fbUid"`
	Type         string    `json:"type"`
	ProblemDates []string  `json:"problemDates"`
	LastUpdate   time.Time `json:"lastUpdate"`
}

// Report builds the history projection as of a reference instant.
// Pure read, no mutation.
func (s *Store) Report(asOf time.Time) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &Report{
		TotalUsers:              len(s.entries),
		UsersByConsecutiveWeeks: make(map[int]int),
		UsersByTotalDetections:  make(map[int]int),
		RecentActivity:          []RecentActivityEntry{},
	}

	cutoff := asOf.Add(-recentActivityWindow)
	for fbUID, entry := range s.entries {
		report.UsersByConsecutiveWeeks[entry.ConsecutiveWeeks]++
		report.UsersByTotalDetections[entry.DetectionCount]++

		if entry.LastUpdate.After(cutoff) {
			report.RecentActivity = append(report.RecentActivity, RecentActivityEntry{
				FbUID:            fbUID,
				LastUpdate:       entry.LastUpdate,
				ConsecutiveWeeks: entry.ConsecutiveWeeks,
				TotalDetections:  entry.DetectionCount,
				Type:             entry.LastType,
				Country:          entry.LastCountry,
			})
		}
	}
	return report
}

// ClassificationSummary aggregates classification state as of a
// reference instant. Pure read, no mutation.
func (s *Store) ClassificationSummary(asOf time.Time) *ClassificationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &ClassificationSummary{
		ByType:         make(map[string]int),
		ByProblemWeeks: make(map[int]int),
		RecentProblems: []RecentProblemEntry{},
	}

	cutoff := asOf.Add(-recentActivityWindow)
	for fbUID, entry := range s.entries {
		c := entry.Classification
		if c == nil {
			continue
		}

		summary.TotalClassified++
		summary.ByType[c.Type]++
		summary.ByProblemWeeks[c.ConsecutiveProblemWeeks]++

		if c.LastUpdate.After(cutoff) {
			summary.RecentProblems = append(summary.RecentProblems, RecentProblemEntry{
				FbUID:        fbUID,
				Type:         c.Type,
				ProblemDates: append([]string(nil), c.ProblemDates...),
				LastUpdate:   c.LastUpdate,
			})
		}
	}
	return summary
}

// WriteHistoryReport renders the projection into the week partition as
// history_report_YYYYMMDD.json.
func (s *Store) WriteHistoryReport(asOf time.Time) (string, error) {
	report := s.Report(asOf)

	s.mu.Lock()
	weekDir := s.weekDir
	s.mu.Unlock()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding history report: %w", err)
	}

	path := filepath.Join(weekDir, fmt.Sprintf("history_report_%s.json", asOf.UTC().Format("20060102")))
	if err := atomicWriteFile(path, data); err != nil {
		return "", fmt.Errorf("writing history report: %w", err)
	}
	return path, nil
}

// WriteRunReport renders one row per collected user into
// report_<partition>.csv. Values are comma-joined without escaping:
// embedded commas in nicknames will shift columns. Known limitation,
// kept for compatibility with downstream consumers of the old reports.
func (s *Store) WriteRunReport(records []*models.UserRecord) (string, error) {
	s.mu.Lock()
	weekDir := s.weekDir
	partition := s.epoch.PartitionID()
	s.mu.Unlock()

	var b strings.Builder
	b.WriteString("FB_UID,nickname,country,lastLogin,totalImages,totalCaptureDays\n")
	for _, u := range records {
		b.WriteString(strings.Join([]string{
			u.FbUID,
			u.Nickname,
			u.Country,
			u.LastLogin,
			fmt.Sprintf("%d", u.Metrics.TotalImages),
			fmt.Sprintf("%d", len(u.Metrics.CapturedDates)),
		}, ","))
		b.WriteByte('\n')
	}

	path := filepath.Join(weekDir, fmt.Sprintf("report_%s.csv", partition))
	if err := atomicWriteFile(path, []byte(b.String())); err != nil {
		return "", fmt.Errorf("writing run report: %w", err)
	}
	return path, nil
}
