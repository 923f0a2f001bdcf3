package models

import (
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/leehee16/monitoring-task-automation/internal/timewindow"
)

// Classification is an externally supplied label for a user plus the
// dates on which problems were found. ConsecutiveProblemWeeks counts the
// distinct ISO weeks the problem dates fall into, not the raw dates.
type Classification struct {
	Type                    string    `json:"type"`
	ProblemDates            []string  `json:"problemDates"`
	LastUpdate              time.Time `json:"lastUpdate"`
	ConsecutiveProblemWeeks int       `json:"consecutiveProblemWeeks"`
}

// HistoryEntry is the durable cross-run ledger record for one user.
// DetectionCount is always derived from DetectionWeeks, and
// ConsecutiveWeeks is recomputed from the full week set on every update.
type HistoryEntry struct {
	FirstDetected    string          `json:"firstDetected"`
	DetectionCount   int             `json:"detectionCount"`
	DetectionWeeks   []string        `json:"detectionWeeks"`
	Captures         []CaptureEvent  `json:"captures"`
	LastUpdate       time.Time       `json:"lastUpdate"`
	LastType         string          `json:"lastType"`
	LastCountry      string          `json:"lastCountry"`
	ConsecutiveWeeks int             `json:"consecutiveWeeks"`
	ProcessedWeeks   []string        `json:"processedWeeks,omitempty"`
	Classification   *Classification `json:"classification,omitempty"`

	// Fields written by newer versions must survive a load-save cycle.
	extra map[string]json.RawMessage
}

// knownEntryFields are the JSON keys owned by this version of the schema.
var knownEntryFields = map[string]struct{}{
	"firstDetected": {}, "detectionCount": {}, "detectionWeeks": {},
	"captures": {}, "lastUpdate": {}, "lastType": {}, "lastCountry": {},
	"consecutiveWeeks": {}, "processedWeeks": {}, "classification": {},
}

// historyEntryAlias strips the custom JSON methods for the inner codec.
type historyEntryAlias HistoryEntry

func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var alias historyEntryAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range knownEntryFields {
		delete(raw, key)
	}
	if len(raw) > 0 {
		alias.extra = raw
	}

	*e = HistoryEntry(alias)
	return nil
}

func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(historyEntryAlias(e))
	if err != nil {
		return nil, err
	}
	if len(e.extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, val := range e.extra {
		merged[key] = val
	}
	return json.Marshal(merged)
}

// Clone deep-copies the entry so a merge can run on a private copy and
// only replace the live entry after the ledger write succeeds.
func (e *HistoryEntry) Clone() *HistoryEntry {
	clone := *e
	clone.DetectionWeeks = append([]string(nil), e.DetectionWeeks...)
	clone.ProcessedWeeks = append([]string(nil), e.ProcessedWeeks...)
	clone.Captures = append([]CaptureEvent(nil), e.Captures...)
	if e.Classification != nil {
		c := *e.Classification
		c.ProblemDates = append([]string(nil), e.Classification.ProblemDates...)
		clone.Classification = &c
	}
	if e.extra != nil {
		clone.extra = make(map[string]json.RawMessage, len(e.extra))
		for k, v := range e.extra {
			clone.extra[k] = v
		}
	}
	return &clone
}

// AddDetectionWeek records an epoch key, keeping the week set unique.
// Reports whether the key was new. DetectionCount follows the set size.
func (e *HistoryEntry) AddDetectionWeek(weekKey string) bool {
	for _, w := range e.DetectionWeeks {
		if w == weekKey {
			return false
		}
	}
	e.DetectionWeeks = append(e.DetectionWeeks, weekKey)
	e.DetectionCount = len(e.DetectionWeeks)
	return true
}

// MergeCaptures unions new captures into the entry by capture date and
// returns how many were actually added.
func (e *HistoryEntry) MergeCaptures(captures []CaptureEvent) int {
	seen := make(map[string]struct{}, len(e.Captures))
	for _, c := range e.Captures {
		seen[c.Date] = struct{}{}
	}

	added := 0
	for _, c := range captures {
		if _, ok := seen[c.Date]; ok {
			continue
		}
		seen[c.Date] = struct{}{}
		e.Captures = append(e.Captures, c)
		added++
	}
	return added
}

// MarkProcessed records an epoch as finalized. Reports whether the state
// changed (false means the week was already marked).
func (e *HistoryEntry) MarkProcessed(weekKey string) bool {
	for _, w := range e.ProcessedWeeks {
		if w == weekKey {
			return false
		}
	}
	e.ProcessedWeeks = append(e.ProcessedWeeks, weekKey)
	return true
}

// RecomputeStreak refreshes ConsecutiveWeeks from the full detection set.
func (e *HistoryEntry) RecomputeStreak() {
	e.ConsecutiveWeeks = LongestWeekStreak(e.DetectionWeeks)
}

// LongestWeekStreak returns the length of the longest run of
// calendar-adjacent ISO weeks among the given epoch keys. The result is
// the longest streak ever, not the current trailing one, and is
// independent of the order keys were inserted in. Unparsable keys break
// any run they appear in.
func LongestWeekStreak(weekKeys []string) int {
	if len(weekKeys) == 0 {
		return 0
	}

	sorted := append([]string(nil), weekKeys...)
	sort.Strings(sorted)

	longest, current := 1, 1
	for i := 1; i < len(sorted); i++ {
		prev, errPrev := timewindow.ParseKey(sorted[i-1])
		curr, errCurr := timewindow.ParseKey(sorted[i])
		if errPrev == nil && errCurr == nil && curr.Sub(prev) == 7*24*time.Hour {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}
	return longest
}

// CountProblemWeeks counts the distinct ISO weeks the given YYYYMMDD
// problem dates fall into. Dates that fail to parse are ignored.
func CountProblemWeeks(problemDates []string) int {
	weeks := make(map[string]struct{}, len(problemDates))
	for _, d := range problemDates {
		date, err := timewindow.ParseCompactDate(d)
		if err != nil {
			continue
		}
		weeks[timewindow.WeekKeyOf(date)] = struct{}{}
	}
	return len(weeks)
}
