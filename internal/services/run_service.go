package services

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/leehee16/monitoring-task-automation/internal/history"
	"github.com/leehee16/monitoring-task-automation/internal/models"
	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/source"
	"github.com/leehee16/monitoring-task-automation/internal/timewindow"
)

type RunServiceInterface interface {
	Execute(ctx context.Context, now time.Time) error
}

// RunService drives one collection run end to end: pull observations
// from the source, normalize them into the collector, persist the run
// artifacts into the week partition, and merge every record into the
// history ledger.
type RunService struct {
	src       source.Source
	collector CollectorServiceInterface
	store     history.StoreInterface
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewRunService(
	src source.Source,
	collector CollectorServiceInterface,
	store history.StoreInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) RunServiceInterface {
	return &RunService{
		src:       src,
		collector: collector,
		store:     store,
		logger:    logger,
		metrics:   metrics,
	}
}

func (rs *RunService) Execute(ctx context.Context, now time.Time) error {
	err := rs.execute(ctx, now)
	if err != nil {
		rs.metrics.IncCollectionRuns("failure")
		return err
	}
	rs.metrics.IncCollectionRuns("success")
	return nil
}

func (rs *RunService) execute(ctx context.Context, now time.Time) error {
	// Re-initializing on every run rolls the partition over when the
	// epoch has advanced since the previous run.
	if err := rs.store.Initialize(now); err != nil {
		return err
	}

	if err := rs.collector.Begin(now); err != nil {
		return err
	}

	epoch := rs.store.Epoch()
	rs.logger.Infof(providers.TypeCollect, "Collection run started for epoch %s", epoch.Key())

	observations, err := rs.src.Collect(ctx)
	if err != nil {
		rs.collector.Finalize(now)
		return fmt.Errorf("collecting observations: %w", err)
	}

	for _, obs := range observations {
		if err := rs.ingestObservation(obs, now); err != nil {
			rs.collector.Finalize(now)
			return err
		}
	}

	meta := rs.collector.Finalize(now)
	records := rs.collector.Records()
	stats := rs.collector.Statistics()

	if _, err := rs.store.WriteRunArtifact(&models.RunArtifact{
		Metadata:   meta,
		Users:      records,
		Statistics: stats,
	}); err != nil {
		return err
	}

	for _, record := range records {
		if _, err := rs.store.Upsert(record, record.Captures, now); err != nil {
			return fmt.Errorf("merging user %s: %w", record.FbUID, err)
		}
		if err := rs.store.MarkProcessed(record.FbUID, epoch.Key()); err != nil {
			return err
		}
	}

	if _, err := rs.store.WriteRunReport(records); err != nil {
		return err
	}
	if _, err := rs.store.WriteHistoryReport(now); err != nil {
		return err
	}

	rs.logger.Infof(providers.TypeCollect,
		"Collection run finished: %d records (%d filtered), %d tracked users",
		meta.TotalRecords, meta.FilteredRecords, rs.store.Size())
	return nil
}

func (rs *RunService) ingestObservation(obs source.RawObservation, now time.Time) error {
	fbUID := cast.ToString(obs.User["fbUid"])
	if fbUID == "" {
		rs.collector.MarkFiltered()
		rs.logger.Warnf(providers.TypeCollect, "Dropping observation without fbUid")
		return nil
	}

	rs.collector.AddUser(obs.User, now)

	for _, raw := range obs.Captures {
		if _, err := timewindow.ParseCompactDate(raw.Date); err != nil {
			rs.logger.Warnf(providers.TypeCollect, "Dropping capture with bad date for %s: %s", fbUID, err)
			continue
		}

		err := rs.collector.AddCapture(fbUID, models.CaptureEvent{
			Date:       raw.Date,
			UserInfo:   raw.UserInfo,
			ImageCount: raw.ImageCount,
			CapturedAt: now,
		})
		if err != nil {
			return fmt.Errorf("capture for %s: %w", fbUID, err)
		}

		if len(raw.Image) > 0 {
			if _, err := rs.store.SaveImage(fbUID, raw.Date, raw.Image); err != nil {
				return fmt.Errorf("saving image for %s: %w", fbUID, err)
			}
		}
	}
	return nil
}
