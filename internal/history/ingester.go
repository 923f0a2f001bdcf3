package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/timewindow"
)

// IngestResult is the batch summary of one classification feed.
type IngestResult struct {
	Updated   int // rows applied to the ledger
	Unknown   int // well-formed rows for user ids the ledger has never seen
	Malformed int // rows skipped because they could not be parsed
}

// Ingester applies an externally produced classification feed to the
// history store. Each row is (userId, "category_date1,date2,..."); bad
// rows are skipped and counted, never fatal to the batch.
type Ingester struct {
	store   StoreInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewIngester(store StoreInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *Ingester {
	return &Ingester{store: store, logger: logger, metrics: metrics}
}

// Ingest reads the feed and applies every well-formed row. The error
// return covers the container only (unreadable file); row problems land
// in the result counts.
func (in *Ingester) Ingest(path string, now time.Time) (IngestResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return IngestResult{}, fmt.Errorf("opening classification feed %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var result IngestResult
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			in.logger.Warnf(providers.TypeHistory, "Skipping unreadable row %d: %s", line, err)
			result.Malformed++
			continue
		}

		fbUID, category, problemDates, err := parseClassificationRow(row)
		if err != nil {
			in.logger.Warnf(providers.TypeHistory, "Skipping malformed row %d: %s", line, err)
			result.Malformed++
			continue
		}

		updated, err := in.store.ApplyClassification(fbUID, category, problemDates, now)
		if err != nil {
			return result, err
		}
		if !updated {
			result.Unknown++
			continue
		}
		result.Updated++

		if err := in.store.MoveToClassified(fbUID, problemDates); err != nil {
			in.logger.Errorf(providers.TypeHistory, "Failed to move classified images for %s: %s", fbUID, err)
		}
	}

	in.metrics.IncClassificationUpdates(result.Updated)
	in.logger.Infof(providers.TypeHistory,
		"Classification feed applied: %d updated, %d unknown users, %d malformed rows",
		result.Updated, result.Unknown, result.Malformed)
	return result, nil
}

// parseClassificationRow validates one (userId, payload) row, where the
// payload is "<category>_<comma-separated YYYYMMDD dates>". The date
// commas split the payload across cells when the feed is unquoted, so
// everything after the user id is rejoined first. A category with no
// dates is legal; a date that does not parse is not.
func parseClassificationRow(row []string) (fbUID, category string, problemDates []string, err error) {
	if len(row) < 2 {
		return "", "", nil, fmt.Errorf("expected 2 cells, got %d", len(row))
	}

	fbUID = strings.TrimSpace(row[0])
	if fbUID == "" {
		return "", "", nil, fmt.Errorf("empty user id")
	}

	payload := strings.Join(row[1:], ",")
	category, datesPart, found := strings.Cut(strings.TrimSpace(payload), "_")
	if !found || category == "" {
		return "", "", nil, fmt.Errorf("payload %q missing category/date separator", row[1])
	}

	problemDates = []string{}
	if datesPart != "" {
		for _, d := range strings.Split(datesPart, ",") {
			d = strings.TrimSpace(d)
			if _, err := timewindow.ParseCompactDate(d); err != nil {
				return "", "", nil, err
			}
			problemDates = append(problemDates, d)
		}
	}
	return fbUID, category, problemDates, nil
}
