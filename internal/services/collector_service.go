package services

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/leehee16/monitoring-task-automation/internal/models"
)

var (
	ErrRunActive   = errors.New("a collection run is already active")
	ErrNoActiveRun = errors.New("no collection run is active")
)

type CollectorServiceInterface interface {
	Begin(now time.Time) error
	AddUser(raw map[string]any, now time.Time) *models.UserRecord
	AddCapture(fbUID string, capture models.CaptureEvent) error
	GetUser(fbUID string) *models.UserRecord
	Records() []*models.UserRecord
	Statistics() *models.RunStats
	MarkFiltered()
	Finalize(now time.Time) *models.RunMetadata
	Active() bool
}

// CollectorService owns the state of one collection run: the normalized
// records in collection order plus the run metadata. A single run is
// active at a time; Begin on an active run fails instead of interleaving.
type CollectorService struct {
	mu      sync.Mutex
	active  atomic.Bool
	records []*models.UserRecord
	byUID   map[string]*models.UserRecord
	meta    models.RunMetadata
}

func NewCollectorService() CollectorServiceInterface {
	return &CollectorService{
		byUID: make(map[string]*models.UserRecord),
	}
}

func (cs *CollectorService) Begin(now time.Time) error {
	if !cs.active.CompareAndSwap(false, true) {
		return ErrRunActive
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.records = nil
	cs.byUID = make(map[string]*models.UserRecord)
	cs.meta = models.RunMetadata{CollectionStartTime: now}
	return nil
}

// AddUser normalizes a raw payload into the run. A payload with a known
// fbUid replaces nothing: the first record for a user wins and later
// payloads only contribute captures.
func (cs *CollectorService) AddUser(raw map[string]any, now time.Time) *models.UserRecord {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	record := models.NormalizeUser(raw, now)
	if existing, ok := cs.byUID[record.FbUID]; ok && record.FbUID != "" {
		return existing
	}

	cs.records = append(cs.records, record)
	if record.FbUID != "" {
		cs.byUID[record.FbUID] = record
	}
	return record
}

func (cs *CollectorService) AddCapture(fbUID string, capture models.CaptureEvent) error {
	if !cs.active.Load() {
		return ErrNoActiveRun
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	record, ok := cs.byUID[fbUID]
	if !ok {
		return nil // capture for a user that was filtered out; drop it
	}
	return record.AppendCapture(capture)
}

func (cs *CollectorService) GetUser(fbUID string) *models.UserRecord {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.byUID[fbUID]
}

func (cs *CollectorService) Records() []*models.UserRecord {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]*models.UserRecord(nil), cs.records...)
}

func (cs *CollectorService) Statistics() *models.RunStats {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return models.NewRunStats(cs.records)
}

// MarkFiltered counts an observation that was rejected before
// normalization, e.g. a payload without a user id.
func (cs *CollectorService) MarkFiltered() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.meta.FilteredRecords++
}

// Finalize closes the run and returns its metadata.
func (cs *CollectorService) Finalize(now time.Time) *models.RunMetadata {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.meta.CollectionEndTime = now
	cs.meta.TotalRecords = len(cs.records)
	meta := cs.meta

	cs.active.Store(false)
	return &meta
}

func (cs *CollectorService) Active() bool {
	return cs.active.Load()
}
