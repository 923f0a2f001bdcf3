package history

import (
	"context"
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"github.com/leehee16/monitoring-task-automation/internal/history/interfaces"
	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/structures"
)

// Runner executes one collection run. Satisfied by services.RunService;
// declared here so the scheduler does not depend on the services package.
type Runner interface {
	Execute(ctx context.Context, now time.Time) error
}

// Scheduler drives daemon mode: collection runs on the collect interval,
// ledger safety flushes on the persist interval. opsMu serializes the
// jobs — at most one run or flush touches the ledger at a time.
type Scheduler struct {
	config   *structures.Config
	logger   providers.Logger
	runner   Runner
	store    StoreInterface
	archiver *Archiver
	cron     *gron.Cron
	opsMu    sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Scheduler.CollectInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		now := time.Now()
		if err := s.runner.Execute(context.Background(), now); err != nil {
			s.logger.Errorf(providers.TypeCollect, "Scheduled collection run failed: %s", err)
			return
		}
		s.archiver.Sweep(s.store.Epoch().PartitionID())
	})

	s.cron.AddFunc(gron.Every(s.config.Scheduler.PersistInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		if err := s.store.Persist(); err != nil {
			s.logger.Errorf(providers.TypeHistory, "Error while persisting ledger: %s", err)
			return
		}
		s.logger.Infof(providers.TypeHistory, "Persisted ledger for %d users", s.store.Size())
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	return s.store.Initialize(time.Now())
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeHistory, "Persisting ledger to file...")
	if err := s.store.Persist(); err != nil {
		s.logger.Errorf(providers.TypeHistory, "Error while persisting ledger: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, runner Runner, store StoreInterface, archiver *Archiver) interfaces.SchedulerInterface {
	return &Scheduler{
		config:   config,
		logger:   logger,
		runner:   runner,
		store:    store,
		archiver: archiver,
	}
}
