package history

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/leehee16/monitoring-task-automation/internal/history/interfaces"
	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/structures"
)

var partitionDirPattern = regexp.MustCompile(`^\d{8}-\d{8}$`)

// Archiver compresses the JSON artifacts of finished week partitions.
// Only JSON documents are archived; captured images and CSV reports are
// consumed by people and stay as-is. The active partition is never
// touched.
type Archiver struct {
	enabled    bool
	historyDir string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewArchiver(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) *Archiver {
	return &Archiver{
		enabled:    conf.History.ArchiveOldWeeks,
		historyDir: filepath.Join(conf.History.BaseDir, "history"),
		compressor: compressor,
		logger:     logger,
	}
}

// Sweep archives every partition directory except the one named by
// activePartition. Failures on individual files are logged and skipped;
// an archival problem must never block collection.
func (a *Archiver) Sweep(activePartition string) {
	if !a.enabled {
		return
	}

	dirs, err := os.ReadDir(a.historyDir)
	if err != nil {
		a.logger.Errorf(providers.TypeHistory, "Archive sweep failed to read %s: %s", a.historyDir, err)
		return
	}

	for _, d := range dirs {
		if !d.IsDir() || d.Name() == activePartition || !partitionDirPattern.MatchString(d.Name()) {
			continue
		}
		a.archivePartition(filepath.Join(a.historyDir, d.Name()))
	}
}

func (a *Archiver) archivePartition(dir string) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		a.logger.Errorf(providers.TypeHistory, "Archive glob failed in %s: %s", dir, err)
		return
	}

	archived := 0
	for _, file := range files {
		if err := a.archiveFile(file); err != nil {
			a.logger.Errorf(providers.TypeHistory, "Failed to archive %s: %s", file, err)
			continue
		}
		archived++
	}
	if archived > 0 {
		a.logger.Infof(providers.TypeHistory, "Archived %d artifacts in %s", archived, filepath.Base(dir))
	}
}

// archiveFile replaces <name>.json with <name>.json.zst. The compressed
// copy is written and renamed before the original is removed, so a crash
// leaves at least one complete copy.
func (a *Archiver) archiveFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	compressed, err := a.compressor.Compress(data)
	if err != nil {
		return err
	}

	target := path + ".zst"
	if err := atomicWriteFile(target, compressed); err != nil {
		return err
	}
	return os.Remove(path)
}

// Restore decompresses a previously archived artifact.
func (a *Archiver) Restore(path string) ([]byte, error) {
	if !strings.HasSuffix(path, ".zst") {
		return os.ReadFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.compressor.Decompress(data)
}

func (a *Archiver) Close() {
	a.compressor.Close()
}
