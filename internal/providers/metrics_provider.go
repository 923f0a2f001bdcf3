package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/leehee16/monitoring-task-automation/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCollectionRuns(outcome string)
	IncUsersMerged()
	IncCapturesDeduplicated(count int)
	IncClassificationUpdates(count int)
	ObservePersistenceDuration(duration time.Duration)
	SetTrackedUsers(count int)
}

type MetricsProvider struct {
	requestsTotal         *prometheus.CounterVec
	requestDuration       *prometheus.HistogramVec
	collectionRuns        *prometheus.CounterVec
	usersMerged           prometheus.Counter
	capturesDeduplicated  prometheus.Counter
	classificationUpdates prometheus.Counter
	persistenceDuration   prometheus.Histogram
	trackedUsers          prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCollectionRuns(outcome string) {
	m.collectionRuns.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) IncUsersMerged() {
	m.usersMerged.Inc()
}

func (m *MetricsProvider) IncCapturesDeduplicated(count int) {
	m.capturesDeduplicated.Add(float64(count))
}

func (m *MetricsProvider) IncClassificationUpdates(count int) {
	m.classificationUpdates.Add(float64(count))
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetTrackedUsers(count int) {
	m.trackedUsers.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "monitor_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		collectionRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_collection_runs_total",
			Help: "Collection runs by outcome",
		}, []string{"outcome"}),

		usersMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "monitor_users_merged_total",
			Help: "User records merged into the history ledger",
		}),

		capturesDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "monitor_captures_deduplicated_total",
			Help: "Captures dropped by date deduplication during merges",
		}),

		classificationUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "monitor_classification_updates_total",
			Help: "Classification rows applied to the ledger",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_persistence_duration_seconds",
			Help:    "Duration of ledger persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		trackedUsers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_tracked_users",
			Help: "Number of users in the history ledger",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCollectionRuns(_ string)                       {}
func (n *noopMetrics) IncUsersMerged()                                  {}
func (n *noopMetrics) IncCapturesDeduplicated(_ int)                    {}
func (n *noopMetrics) IncClassificationUpdates(_ int)                   {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) SetTrackedUsers(_ int)                            {}
