package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/structures"
)

// FileSource reads observations from pre-scraped JSON dumps in a drop
// directory. Each *.json file holds either a single observation or an
// array of them. Files that fail to parse are skipped and counted, not
// fatal — a bad dump must not abort the whole run.
type FileSource struct {
	dir    string
	logger providers.Logger
}

func NewFileSource(conf *structures.Config, logger providers.Logger) Source {
	return &FileSource{dir: conf.Collector.InputDir, logger: logger}
}

func (fs *FileSource) Collect(ctx context.Context) ([]RawObservation, error) {
	files, err := filepath.Glob(filepath.Join(fs.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scanning input dir %s: %w", fs.dir, err)
	}
	sort.Strings(files)

	var observations []RawObservation
	skipped := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		obs, err := fs.readFile(file)
		if err != nil {
			fs.logger.Warnf(providers.TypeCollect, "Skipping input file %s: %s", file, err)
			skipped++
			continue
		}
		observations = append(observations, obs...)
	}

	if skipped > 0 {
		fs.logger.Warnf(providers.TypeCollect, "Skipped %d malformed input files", skipped)
	}
	return observations, nil
}

func (fs *FileSource) readFile(path string) ([]RawObservation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var many []RawObservation
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var one RawObservation
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []RawObservation{one}, nil
}
