package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leehee16/monitoring-task-automation/internal/controllers"
	"github.com/leehee16/monitoring-task-automation/internal/history"
	"github.com/leehee16/monitoring-task-automation/internal/history/interfaces"
	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/services"
	"github.com/leehee16/monitoring-task-automation/internal/structures"
)

type App struct {
	WebServer *http.Server
}

// NewApp runs the selected mode to completion. One-shot modes (single
// run, classification ingest, report) return as soon as the work is
// done; daemon mode blocks until a shutdown signal.
func NewApp(
	flags *structures.CliFlags,
	conf *structures.Config,
	logger providers.Logger,
	scheduler interfaces.SchedulerInterface,
	runService services.RunServiceInterface,
	ingester *history.Ingester,
	store history.StoreInterface,
	archiver *history.Archiver,
	healthController *controllers.HealthController,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) (*App, error) {
	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)

	if err := scheduler.Restore(); err != nil {
		return nil, fmt.Errorf("restoring history: %w", err)
	}

	switch {
	case flags.Classifications != "":
		return &App{}, runClassifications(flags.Classifications, ingester, store)
	case flags.Once:
		return &App{}, runOnce(runService, store, archiver)
	case flags.Report:
		return &App{}, runReport(store)
	}

	return runDaemon(conf, logger, scheduler, healthController, router, metrics)
}

func runClassifications(path string, ingester *history.Ingester, store history.StoreInterface) error {
	now := time.Now()
	result, err := ingester.Ingest(path, now)
	if err != nil {
		return err
	}

	fmt.Printf("Classification update: %d updated, %d unknown users, %d malformed rows\n",
		result.Updated, result.Unknown, result.Malformed)

	summary := store.ClassificationSummary(now)
	fmt.Printf("Classified users: %d\n", summary.TotalClassified)
	for category, count := range summary.ByType {
		fmt.Printf("  %s: %d\n", category, count)
	}
	return nil
}

func runOnce(runService services.RunServiceInterface, store history.StoreInterface, archiver *history.Archiver) error {
	if err := runService.Execute(context.Background(), time.Now()); err != nil {
		return err
	}
	archiver.Sweep(store.Epoch().PartitionID())
	return nil
}

func runReport(store history.StoreInterface) error {
	path, err := store.WriteHistoryReport(time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("History report written to %s\n", path)
	return nil
}

func runDaemon(
	conf *structures.Config,
	logger providers.Logger,
	scheduler interfaces.SchedulerInterface,
	healthController *controllers.HealthController,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) (*App, error) {
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	instrumentedAPI := providers.MetricsMiddleware(metrics, logger, apiMux)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	app := &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		return nil, fmt.Errorf("server error: %w", err)
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}
	if err := scheduler.Persist(); err != nil {
		return nil, err
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}
