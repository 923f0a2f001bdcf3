package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/source"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// CountLevel returns the number of recorded entries at a level.
func (m *MockLogger) CountLevel(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockCompressor implements interfaces.CompressorInterface as a
// pass-through, with optional forced failures.
type MockCompressor struct {
	CompressErr   error
	DecompressErr error
	Closed        bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressErr != nil {
		return nil, m.CompressErr
	}
	return val, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressErr != nil {
		return nil, m.DecompressErr
	}
	return val, nil
}

func (m *MockCompressor) Close() { m.Closed = true }

// MockMetrics implements providers.MetricsProviderInterface and counts
// the calls that matter to tests.
type MockMetrics struct {
	mu                    sync.Mutex
	Runs                  map[string]int
	UsersMerged           int
	CapturesDeduplicated  int
	ClassificationUpdates int
	PersistenceWrites     int
	TrackedUsers          int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCollectionRuns(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Runs == nil {
		m.Runs = make(map[string]int)
	}
	m.Runs[outcome]++
}

func (m *MockMetrics) IncUsersMerged() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UsersMerged++
}

func (m *MockMetrics) IncCapturesDeduplicated(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CapturesDeduplicated += count
}

func (m *MockMetrics) IncClassificationUpdates(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClassificationUpdates += count
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistenceWrites++
}

func (m *MockMetrics) SetTrackedUsers(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrackedUsers = count
}

// MockCache implements providers.CacheProviderInterface over a map.
type MockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
}

// MockSource implements source.Source with canned observations.
type MockSource struct {
	Observations []source.RawObservation
	Err          error
}

var ErrSourceUnavailable = errors.New("source unavailable")

func (m *MockSource) Collect(_ context.Context) ([]source.RawObservation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Observations, nil
}
