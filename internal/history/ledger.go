package history

import (
	"errors"
	"fmt"
	"os"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"

	"github.com/leehee16/monitoring-task-automation/internal/models"
)

// ErrCorruptLedger means the ledger file exists but cannot be parsed.
// This is never treated as "no history": silently starting empty would
// erase every user's streak state.
var ErrCorruptLedger = errors.New("history ledger is corrupted")

const defaultMaxIORetries = 3

// Ledger persists the user-id -> HistoryEntry mapping as a single JSON
// object, rewritten whole on every mutation. Reads and writes retry a
// bounded number of times before the error surfaces.
type Ledger struct {
	path       string
	maxRetries uint64
}

func NewLedger(path string, maxRetries uint64) *Ledger {
	if maxRetries == 0 {
		maxRetries = defaultMaxIORetries
	}
	return &Ledger{path: path, maxRetries: maxRetries}
}

func (l *Ledger) Path() string {
	return l.path
}

// Load reads the full ledger. A missing file yields an empty mapping; an
// unreadable or unparsable file yields an error.
func (l *Ledger) Load() (map[string]*models.HistoryEntry, error) {
	var data []byte
	op := func() error {
		var err error
		data, err = os.ReadFile(l.path)
		if os.IsNotExist(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), l.maxRetries))
	if os.IsNotExist(err) {
		return make(map[string]*models.HistoryEntry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history ledger %s: %w", l.path, err)
	}

	entries := make(map[string]*models.HistoryEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrCorruptLedger, l.path, err)
	}
	return entries, nil
}

// Write replaces the ledger atomically: marshal, write to a temp file,
// fsync, rename. A crash mid-write leaves the previous ledger intact.
func (l *Ledger) Write(entries map[string]*models.HistoryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history ledger: %w", err)
	}

	op := func() error {
		return l.writeOnce(data)
	}
	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), l.maxRetries)); err != nil {
		return fmt.Errorf("writing history ledger %s: %w", l.path, err)
	}
	return nil
}

func (l *Ledger) writeOnce(data []byte) error {
	tmpFile := l.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, l.path)
}
