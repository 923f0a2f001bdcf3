package timewindow

import (
	"fmt"
	"time"
)

const (
	keyLayout     = "2006-01-02"
	compactLayout = "20060102"
)

// Epoch is one ISO calendar week, the atomic unit of detection history.
type Epoch struct {
	Start time.Time
	End   time.Time
}

// Key returns the epoch's identity for history set membership:
// the ISO-week Monday in YYYY-MM-DD form.
func (e Epoch) Key() string {
	return e.Start.Format(keyLayout)
}

// PartitionID returns the on-disk partition name, YYYYMMDD-YYYYMMDD.
func (e Epoch) PartitionID() string {
	return e.Start.Format(compactLayout) + "-" + e.End.Format(compactLayout)
}

// Current returns the active epoch for a reference instant: always the
// ISO week immediately preceding the one containing now. The one-week lag
// lets the monitored source's data settle before collection.
func Current(now time.Time) Epoch {
	start := startOfISOWeek(now).AddDate(0, 0, -7)
	return Epoch{
		Start: start,
		End:   start.AddDate(0, 0, 6),
	}
}

// WeekKeyOf maps an arbitrary date to its ISO-week epoch key.
func WeekKeyOf(date time.Time) string {
	return startOfISOWeek(date).Format(keyLayout)
}

// ParseKey parses a YYYY-MM-DD epoch key back into a date.
func ParseKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(keyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch key %q: %w", key, err)
	}
	return t, nil
}

// ParseCompactDate parses a YYYYMMDD date as used by capture filenames
// and classification feeds.
func ParseCompactDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(compactLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// startOfISOWeek truncates to midnight UTC of the Monday of t's week.
func startOfISOWeek(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysSinceMonday)
}
