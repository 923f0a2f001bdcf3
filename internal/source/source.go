// Package source is the boundary to the monitored system. The engine only
// needs a sequence of raw per-user payloads plus capture tuples; how they
// were obtained (browser automation, pre-scraped dumps) stays behind the
// Source interface.
package source

import "context"

// RawCapture is one unprocessed capture tuple for a user.
type RawCapture struct {
	Date       string         `json:"date"`
	UserInfo   map[string]any `json:"userInfo"`
	ImageCount int            `json:"imageCount"`
	Image      []byte         `json:"image,omitempty"`
}

// RawObservation is one user's payload as delivered by the source.
type RawObservation struct {
	User     map[string]any `json:"user"`
	Captures []RawCapture   `json:"captures"`
}

type Source interface {
	Collect(ctx context.Context) ([]RawObservation, error)
}
