package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leehee16/monitoring-task-automation/internal/testutil"
)

type mockRunner struct {
	calls int
	err   error
}

func (m *mockRunner) Execute(_ context.Context, _ time.Time) error {
	m.calls++
	return m.err
}

func schedulerFixture(t *testing.T, baseDir string) (*Scheduler, StoreInterface) {
	t.Helper()
	conf := testConfig(baseDir)
	conf.Scheduler.CollectInterval = time.Hour
	conf.Scheduler.PersistInterval = time.Hour

	logger := &testutil.MockLogger{}
	store := NewStore(conf, logger, &testutil.MockMetrics{})
	archiver := NewArchiver(conf, &testutil.MockCompressor{}, logger)

	s := NewScheduler(conf, logger, &mockRunner{}, store, archiver)
	return s.(*Scheduler), store
}

func TestScheduler_RestoreInitializesStore(t *testing.T) {
	dir := t.TempDir()
	s, store := schedulerFixture(t, dir)

	require.NoError(t, s.Restore())
	assert.NotEmpty(t, store.WeekDir())
	_, err := os.Stat(store.WeekDir())
	assert.NoError(t, err)
}

func TestScheduler_RestoreMissingLedger(t *testing.T) {
	s, store := schedulerFixture(t, t.TempDir())

	require.NoError(t, s.Restore())
	assert.Zero(t, store.Size())
}

func TestScheduler_RestoreCorruptLedger(t *testing.T) {
	dir := t.TempDir()
	historyDir := filepath.Join(dir, "history")
	require.NoError(t, os.MkdirAll(historyDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(historyDir, "user_history.json"), []byte("junk"), 0644))

	s, _ := schedulerFixture(t, dir)
	err := s.Restore()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptLedger)
}

func TestScheduler_PersistWritesLedger(t *testing.T) {
	dir := t.TempDir()
	s, _ := schedulerFixture(t, dir)
	require.NoError(t, s.Restore())

	require.NoError(t, s.Persist())

	_, err := os.Stat(filepath.Join(dir, "history", "user_history.json"))
	assert.NoError(t, err)
}

func TestScheduler_InitAndStop(t *testing.T) {
	s, _ := schedulerFixture(t, t.TempDir())
	require.NoError(t, s.Restore())

	s.Init()
	s.Stop()
}
