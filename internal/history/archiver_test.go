package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leehee16/monitoring-task-automation/internal/structures"
	"github.com/leehee16/monitoring-task-automation/internal/testutil"
)

func newTestArchiver(t *testing.T, baseDir string, enabled bool) *Archiver {
	t.Helper()
	conf := testConfig(baseDir)
	conf.History.ArchiveOldWeeks = enabled
	return NewArchiver(conf, &testutil.MockCompressor{}, &testutil.MockLogger{})
}

func seedPartition(t *testing.T, baseDir, partition string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(baseDir, "history", partition)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestSweep_ArchivesFinishedPartitions(t *testing.T) {
	baseDir := t.TempDir()
	oldDir := seedPartition(t, baseDir, "20240101-20240107", map[string]string{
		"analysis_data.json":           `{"users":[]}`,
		"history_report_20240105.json": `{}`,
		"report_20240101-20240107.csv": "FB_UID\n",
	})

	newTestArchiver(t, baseDir, true).Sweep("20240108-20240114")

	_, err := os.Stat(filepath.Join(oldDir, "analysis_data.json.zst"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(oldDir, "analysis_data.json"))
	assert.True(t, os.IsNotExist(err), "original must be removed after archiving")

	// CSV reports are read by people and stay uncompressed
	_, err = os.Stat(filepath.Join(oldDir, "report_20240101-20240107.csv"))
	assert.NoError(t, err)
}

func TestSweep_SkipsActivePartition(t *testing.T) {
	baseDir := t.TempDir()
	activeDir := seedPartition(t, baseDir, "20240108-20240114", map[string]string{
		"analysis_data.json": `{"users":[]}`,
	})

	newTestArchiver(t, baseDir, true).Sweep("20240108-20240114")

	_, err := os.Stat(filepath.Join(activeDir, "analysis_data.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(activeDir, "analysis_data.json.zst"))
	assert.True(t, os.IsNotExist(err))
}

func TestSweep_IgnoresForeignDirectories(t *testing.T) {
	baseDir := t.TempDir()
	dir := filepath.Join(baseDir, "history", "notes")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.json"), []byte("{}"), 0644))

	newTestArchiver(t, baseDir, true).Sweep("20240108-20240114")

	_, err := os.Stat(filepath.Join(dir, "scratch.json"))
	assert.NoError(t, err)
}

func TestSweep_DisabledIsNoop(t *testing.T) {
	baseDir := t.TempDir()
	oldDir := seedPartition(t, baseDir, "20240101-20240107", map[string]string{
		"analysis_data.json": `{"users":[]}`,
	})

	newTestArchiver(t, baseDir, false).Sweep("20240108-20240114")

	_, err := os.Stat(filepath.Join(oldDir, "analysis_data.json"))
	assert.NoError(t, err)
}

func TestRestore_ReadsArchivedAndPlainFiles(t *testing.T) {
	baseDir := t.TempDir()
	archiver := newTestArchiver(t, baseDir, true)
	oldDir := seedPartition(t, baseDir, "20240101-20240107", map[string]string{
		"analysis_data.json": `{"users":[]}`,
	})

	archiver.Sweep("20240108-20240114")

	data, err := archiver.Restore(filepath.Join(oldDir, "analysis_data.json.zst"))
	require.NoError(t, err)
	assert.Equal(t, `{"users":[]}`, string(data))

	plain := filepath.Join(oldDir, "plain.json")
	require.NoError(t, os.WriteFile(plain, []byte("{}"), 0644))
	data, err = archiver.Restore(plain)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestArchiveRoundTrip_RealCompressor(t *testing.T) {
	compressor, err := NewZstdCompressor()
	require.NoError(t, err)
	defer compressor.Close()

	conf := &structures.Config{History: structures.HistoryConfig{
		BaseDir:         t.TempDir(),
		ArchiveOldWeeks: true,
	}}
	archiver := NewArchiver(conf, compressor, &testutil.MockLogger{})
	oldDir := seedPartition(t, conf.History.BaseDir, "20240101-20240107", map[string]string{
		"analysis_data.json": `{"users":["u1","u2"]}`,
	})

	archiver.Sweep("20240108-20240114")

	data, err := archiver.Restore(filepath.Join(oldDir, "analysis_data.json.zst"))
	require.NoError(t, err)
	assert.Equal(t, `{"users":["u1","u2"]}`, string(data))
}
