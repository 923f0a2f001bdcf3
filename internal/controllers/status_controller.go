package controllers

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/leehee16/monitoring-task-automation/internal/history"
	"github.com/leehee16/monitoring-task-automation/internal/providers"
	"github.com/leehee16/monitoring-task-automation/internal/services"
)

// StatusController exposes read-only views over the ledger and the
// last run. Responses are cached until the next collection interval.
type StatusController struct {
	logger    providers.Logger
	store     history.StoreInterface
	collector services.CollectorServiceInterface
	cache     providers.CacheProviderInterface
}

func NewStatusController(logger providers.Logger, store history.StoreInterface, collector services.CollectorServiceInterface, cache providers.CacheProviderInterface) *StatusController {
	return &StatusController{
		logger:    logger,
		store:     store,
		collector: collector,
		cache:     cache,
	}
}

func (sc *StatusController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := sc.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sc.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// GetReport serves the history projection grouped by streaks and
// detection counts.
func (sc *StatusController) GetReport(w http.ResponseWriter, r *http.Request) {
	sc.serveFromCacheOrCompute(w, "report", func() (any, error) {
		return sc.store.Report(time.Now()), nil
	})
}

// GetClassifications serves the classification summary.
func (sc *StatusController) GetClassifications(w http.ResponseWriter, r *http.Request) {
	sc.serveFromCacheOrCompute(w, "classifications", func() (any, error) {
		return sc.store.ClassificationSummary(time.Now()), nil
	})
}

// GetUser serves a single user's history entry; 404 when unknown.
func (sc *StatusController) GetUser(w http.ResponseWriter, r *http.Request) {
	fbUID := r.URL.Query().Get("id")
	if fbUID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	entry, ok := sc.store.Get(fbUID)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	gson, err := json.Marshal(entry)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// GetRunStats serves the statistics of the run currently in memory.
func (sc *StatusController) GetRunStats(w http.ResponseWriter, r *http.Request) {
	sc.serveFromCacheOrCompute(w, "run", func() (any, error) {
		return sc.collector.Statistics(), nil
	})
}
