package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/leehee16/monitoring-task-automation/internal/models"
	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/structures"
	"github.com/leehee16/monitoring-task-automation/internal/timewindow"
)

type StoreInterface interface {
	Initialize(now time.Time) error
	Upsert(record *models.UserRecord, captures []models.CaptureEvent, now time.Time) (*models.HistoryEntry, error)
	MarkProcessed(fbUID, weekKey string) error
	ApplyClassification(fbUID, category string, problemDates []string, now time.Time) (bool, error)
	Get(fbUID string) (*models.HistoryEntry, bool)
	Size() int
	Epoch() timewindow.Epoch
	WeekDir() string
	Persist() error
	Report(asOf time.Time) *Report
	ClassificationSummary(asOf time.Time) *ClassificationSummary
	WriteRunArtifact(artifact *models.RunArtifact) (string, error)
	WriteHistoryReport(asOf time.Time) (string, error)
	WriteRunReport(records []*models.UserRecord) (string, error)
	SaveImage(fbUID, date string, image []byte) (string, error)
	MoveToClassified(fbUID string, problemDates []string) error
}

// Store is the durable cross-run ledger keyed by user id. The whole
// ledger lives in memory and is rewritten to disk after every mutation;
// mutations run on a private copy and only replace the live entry once
// the write succeeded, so the in-memory state and the file never diverge.
type Store struct {
	mu         sync.Mutex
	baseDir    string
	historyDir string
	weekDir    string
	epoch      timewindow.Epoch
	entries    map[string]*models.HistoryEntry
	ledger     *Ledger
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewStore(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) StoreInterface {
	historyDir := filepath.Join(conf.History.BaseDir, "history")
	return &Store{
		baseDir:    conf.History.BaseDir,
		historyDir: historyDir,
		entries:    make(map[string]*models.HistoryEntry),
		ledger:     NewLedger(filepath.Join(historyDir, "user_history.json"), conf.History.MaxIORetries),
		logger:     logger,
		metrics:    metrics,
	}
}

// Initialize selects the active epoch, creates the week partition
// directories and loads the ledger. A missing ledger file starts empty;
// a corrupted one surfaces ErrCorruptLedger.
func (s *Store) Initialize(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch = timewindow.Current(now)
	s.weekDir = filepath.Join(s.historyDir, s.epoch.PartitionID())

	for _, dir := range []string{
		s.historyDir,
		s.weekDir,
		filepath.Join(s.weekDir, "data"),
		filepath.Join(s.weekDir, "classified"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating partition directory %s: %w", dir, err)
		}
	}

	entries, err := s.ledger.Load()
	if err != nil {
		return err
	}
	s.entries = entries
	s.metrics.SetTrackedUsers(len(entries))
	s.logger.Infof(providers.TypeHistory, "Loaded history for %d users, epoch %s", len(entries), s.epoch.Key())
	return nil
}

// Upsert merges one run's record into the ledger. Running twice within
// the same epoch adds the epoch key once, and captures are unioned by
// date, so the merge is idempotent. ConsecutiveWeeks is recomputed from
// the full detection set every time.
func (s *Store) Upsert(record *models.UserRecord, captures []models.CaptureEvent, now time.Time) (*models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateWeekKey(s.epoch.Key()); err != nil {
		return nil, err
	}

	var entry *models.HistoryEntry
	if existing, ok := s.entries[record.FbUID]; ok {
		entry = existing.Clone()
	} else {
		entry = &models.HistoryEntry{
			FirstDetected:  now.UTC().Format("2006-01-02"),
			DetectionWeeks: []string{},
			Captures:       []models.CaptureEvent{},
		}
	}

	entry.AddDetectionWeek(s.epoch.Key())
	deduped := len(captures) - entry.MergeCaptures(captures)
	entry.LastUpdate = now.UTC()
	entry.LastType = record.Type
	entry.LastCountry = record.Country
	entry.RecomputeStreak()

	if err := s.persistWith(record.FbUID, entry); err != nil {
		return nil, err
	}

	s.metrics.IncUsersMerged()
	if deduped > 0 {
		s.metrics.IncCapturesDeduplicated(deduped)
	}
	return entry.Clone(), nil
}

// MarkProcessed records an epoch as finalized for a user so it is never
// reported twice. Unknown users and already-marked weeks are no-ops.
func (s *Store) MarkProcessed(fbUID, weekKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[fbUID]
	if !ok {
		return nil
	}

	entry := existing.Clone()
	if !entry.MarkProcessed(weekKey) {
		return nil
	}
	return s.persistWith(fbUID, entry)
}

// ApplyClassification overwrites a user's classification with an
// externally produced category and problem-date list. Returns false
// without touching the ledger when the user id is unknown.
func (s *Store) ApplyClassification(fbUID, category string, problemDates []string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[fbUID]
	if !ok {
		return false, nil
	}

	entry := existing.Clone()
	entry.Classification = &models.Classification{
		Type:                    category,
		ProblemDates:            append([]string(nil), problemDates...),
		LastUpdate:              now.UTC(),
		ConsecutiveProblemWeeks: models.CountProblemWeeks(problemDates),
	}

	if err := s.persistWith(fbUID, entry); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Get(fbUID string) (*models.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[fbUID]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) Epoch() timewindow.Epoch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// WeekDir returns the active epoch's partition directory.
func (s *Store) WeekDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weekDir
}

// Persist rewrites the ledger from the current in-memory state.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLedger(s.entries)
}

// persistWith writes the ledger with one entry replaced and swaps the
// entry into the live map only on success. Partial updates are therefore
// never observable, in memory or on disk. Must be called under s.mu.
func (s *Store) persistWith(fbUID string, entry *models.HistoryEntry) error {
	next := make(map[string]*models.HistoryEntry, len(s.entries)+1)
	for id, e := range s.entries {
		next[id] = e
	}
	next[fbUID] = entry

	if err := s.writeLedger(next); err != nil {
		return err
	}
	s.entries = next
	s.metrics.SetTrackedUsers(len(next))
	return nil
}

func (s *Store) writeLedger(entries map[string]*models.HistoryEntry) error {
	start := time.Now()
	if err := s.ledger.Write(entries); err != nil {
		return err
	}
	s.metrics.ObservePersistenceDuration(time.Since(start))
	return nil
}

// WriteRunArtifact writes the per-run analysis document into the week
// partition with the same atomic semantics as the ledger.
func (s *Store) WriteRunArtifact(artifact *models.RunArtifact) (string, error) {
	s.mu.Lock()
	weekDir := s.weekDir
	s.mu.Unlock()

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding run artifact: %w", err)
	}

	path := filepath.Join(weekDir, "analysis_data.json")
	if err := atomicWriteFile(path, data); err != nil {
		return "", fmt.Errorf("writing run artifact: %w", err)
	}
	return path, nil
}

// SaveImage stores a captured image under the partition's data directory
// as <uid>/<uid>_<date>.jpg.
func (s *Store) SaveImage(fbUID, date string, image []byte) (string, error) {
	s.mu.Lock()
	weekDir := s.weekDir
	s.mu.Unlock()

	userDir := filepath.Join(weekDir, "data", fbUID)
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(userDir, fmt.Sprintf("%s_%s.jpg", fbUID, date))
	if err := os.WriteFile(path, image, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// MoveToClassified relocates a user's problem-date images from data/ to
// classified/ inside the active partition and removes the source
// directory once it is empty.
func (s *Store) MoveToClassified(fbUID string, problemDates []string) error {
	s.mu.Lock()
	weekDir := s.weekDir
	s.mu.Unlock()

	sourceDir := filepath.Join(weekDir, "data", fbUID)
	targetDir := filepath.Join(weekDir, "classified", fbUID)

	files, err := os.ReadDir(sourceDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	problems := make(map[string]struct{}, len(problemDates))
	for _, d := range problemDates {
		problems[d] = struct{}{}
	}

	moved := false
	for _, f := range files {
		date := captureDateFromFilename(f.Name())
		if _, ok := problems[date]; !ok {
			continue
		}
		if !moved {
			if err := os.MkdirAll(targetDir, 0755); err != nil {
				return err
			}
			moved = true
		}
		if err := os.Rename(filepath.Join(sourceDir, f.Name()), filepath.Join(targetDir, f.Name())); err != nil {
			return err
		}
	}

	remaining, err := os.ReadDir(sourceDir)
	if err == nil && len(remaining) == 0 {
		_ = os.Remove(sourceDir)
	}
	return nil
}

// captureDateFromFilename extracts the date part of <uid>_<date>.jpg.
func captureDateFromFilename(name string) string {
	base := name[:len(name)-len(filepath.Ext(name))]
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '_' {
			return base[i+1:]
		}
	}
	return ""
}

// validateWeekKey guards against impossible epoch keys reaching the
// ledger; by the error taxonomy this is fatal, not recoverable.
func validateWeekKey(weekKey string) error {
	t, err := timewindow.ParseKey(weekKey)
	if err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvariant, err)
	}
	if t.Year() < 2000 || t.Year() > 2200 {
		return fmt.Errorf("%w: epoch key %s out of calendar range", models.ErrInvariant, weekKey)
	}
	return nil
}

func atomicWriteFile(path string, data []byte) error {
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpFile, path)
}
