package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// ErrInvariant marks internal consistency violations (negative counters,
// malformed epoch keys). Callers must stop the operation instead of
// persisting the state that produced it.
var ErrInvariant = errors.New("invariant violation")

// CaptureEvent is one observed capture for a user: the capture date in
// YYYYMMDD form, an opaque snapshot of the user state at capture time,
// and how many images were taken. Immutable once appended to a record.
type CaptureEvent struct {
	Date       string         `json:"date"`
	UserInfo   map[string]any `json:"userInfo"`
	ImageCount int            `json:"imageCount"`
	CapturedAt time.Time      `json:"capturedAt"`
}

// ActivityMetrics summarizes a record's captures. TotalImages always
// equals the sum of capture image counts; AverageImagesPerDay is
// TotalImages over the number of distinct capture dates (0 with no dates).
type ActivityMetrics struct {
	TotalImages         int      `json:"totalImages"`
	CapturedDates       []string `json:"capturedDates"`
	AverageImagesPerDay float64  `json:"averageImagesPerDay"`
}

// UserRecord is the canonical per-run shape of one monitored user.
type UserRecord struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	FbUID       string          `json:"fbUid"`
	Nickname    string          `json:"nickname"`
	Country     string          `json:"country"`
	Gender      string          `json:"gender"`
	LastLogin   string          `json:"lastLogin"`
	CollectedAt time.Time       `json:"collectedAt"`
	Captures    []CaptureEvent  `json:"captures"`
	Metrics     ActivityMetrics `json:"activityMetrics"`

	dateSet map[string]struct{}
}

// NormalizeUser maps an arbitrary raw payload into a UserRecord. Unknown
// or missing fields become zero values; nothing here can fail.
func NormalizeUser(raw map[string]any, collectedAt time.Time) *UserRecord {
	return &UserRecord{
		ID:          cast.ToString(raw["id"]),
		Type:        cast.ToString(raw["type"]),
		FbUID:       cast.ToString(raw["fbUid"]),
		Nickname:    cast.ToString(raw["nick"]),
		Country:     cast.ToString(raw["country"]),
		Gender:      cast.ToString(raw["gender"]),
		LastLogin:   cast.ToString(raw["lastLogin"]),
		CollectedAt: collectedAt,
		Captures:    []CaptureEvent{},
		Metrics: ActivityMetrics{
			CapturedDates: []string{},
		},
	}
}

// AppendCapture appends one capture and updates the activity metrics with
// a running total and date set, so a record with n captures costs O(n)
// overall, not O(n²).
func (u *UserRecord) AppendCapture(c CaptureEvent) error {
	if c.ImageCount < 0 {
		return fmt.Errorf("%w: negative image count %d for user %s", ErrInvariant, c.ImageCount, u.FbUID)
	}

	u.Captures = append(u.Captures, c)
	u.Metrics.TotalImages += c.ImageCount

	if u.dateSet == nil {
		u.dateSet = make(map[string]struct{})
		for _, d := range u.Metrics.CapturedDates {
			u.dateSet[d] = struct{}{}
		}
	}
	if _, seen := u.dateSet[c.Date]; !seen {
		u.dateSet[c.Date] = struct{}{}
		u.Metrics.CapturedDates = append(u.Metrics.CapturedDates, c.Date)
	}

	if len(u.Metrics.CapturedDates) > 0 {
		u.Metrics.AverageImagesPerDay = float64(u.Metrics.TotalImages) / float64(len(u.Metrics.CapturedDates))
	} else {
		u.Metrics.AverageImagesPerDay = 0
	}
	return nil
}
