// Package metrics provides Prometheus metrics for the planner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the planner.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Sync engine
	syncRequests *prometheus.CounterVec
	syncLatency  *prometheus.HistogramVec
	reloads      prometheus.Counter

	// Local stores
	storeBuckets    prometheus.Gauge
	storeEvents     prometheus.Gauge
	storeCategories prometheus.Gauge
	cascadeNullify  prometheus.Counter
	snapshotWrites  prometheus.Counter
	snapshotErrors  prometheus.Counter

	// Navigation
	navTransitions *prometheus.CounterVec
	navSuperseded  prometheus.Counter

	// Intent queue / worker
	queueSize   prometheus.Gauge
	queueErrors *prometheus.CounterVec
	jobs        *prometheus.CounterVec
	jobLatency  prometheus.Histogram

	// Reference backend HTTP server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "planner",
		subsystem:        "",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all metric definitions
	auto := promauto.With(m.registry)

	m.syncRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_requests_total",
		Help:      "Backend calls issued by the sync engine by operation and outcome",
	}, []string{"op", "outcome"})

	m.syncLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_request_duration_milliseconds",
		Help:      "Round-trip latency of backend calls in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})

	m.reloads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reloads_total",
		Help:      "Full reconciliations of the local stores with the backend",
	})

	m.storeBuckets = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_buckets",
		Help:      "Number of non-empty day buckets in the event store",
	})

	m.storeEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_events",
		Help:      "Number of events held in the event store",
	})

	m.storeCategories = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_categories",
		Help:      "Number of categories held in the category store",
	})

	m.cascadeNullify = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cascade_nullified_events_total",
		Help:      "Events whose category reference was cleared by a category delete",
	})

	m.snapshotWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_writes_total",
		Help:      "Local snapshot writes after store mutations",
	})

	m.snapshotErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_errors_total",
		Help:      "Failed local snapshot reads or writes",
	})

	m.navTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "navigation_transitions_total",
		Help:      "Month transitions started, by direction",
	}, []string{"direction"})

	m.navSuperseded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "navigation_superseded_total",
		Help:      "Transitions replaced by a newer one before completing",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "intent_queue_size",
		Help:      "Intents waiting for the mutator worker",
	})

	m.queueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "intent_queue_rejections_total",
		Help:      "Intents rejected by the queue, by reason",
	}, []string{"reason"})

	m.jobs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "intents_processed_total",
		Help:      "Intents executed by the mutator worker, by operation and outcome",
	}, []string{"op", "outcome"})

	m.jobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "intent_duration_milliseconds",
		Help:      "Execution time of intents in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Requests served by the reference backend",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Reference backend request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordSyncRequest counts a backend call made by the sync engine.
func RecordSyncRequest(op, outcome string, latencyMs float64) {
	globalManager.syncRequests.WithLabelValues(op, outcome).Inc()
	globalManager.syncLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordReload counts a full reconciliation.
func RecordReload() {
	globalManager.reloads.Inc()
}

// UpdateStoreSize publishes the event store shape.
func UpdateStoreSize(buckets, events int) {
	globalManager.storeBuckets.Set(float64(buckets))
	globalManager.storeEvents.Set(float64(events))
}

// UpdateCategoryCount publishes the category store size.
func UpdateCategoryCount(count int) {
	globalManager.storeCategories.Set(float64(count))
}

// RecordCascadeNullify counts events cleared by a category delete.
func RecordCascadeNullify(count int) {
	globalManager.cascadeNullify.Add(float64(count))
}

// RecordSnapshotWrite counts a successful snapshot write.
func RecordSnapshotWrite() {
	globalManager.snapshotWrites.Inc()
}

// RecordSnapshotError counts a failed snapshot read or write.
func RecordSnapshotError() {
	globalManager.snapshotErrors.Inc()
}

// RecordNavigationTransition counts a transition start.
func RecordNavigationTransition(direction string) {
	globalManager.navTransitions.WithLabelValues(direction).Inc()
}

// RecordNavigationSuperseded counts a transition replaced mid-flight.
func RecordNavigationSuperseded() {
	globalManager.navSuperseded.Inc()
}

// UpdateQueueSize sets the intent queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueRejection counts an intent the queue refused.
func RecordQueueRejection(reason string) {
	globalManager.queueErrors.WithLabelValues(reason).Inc()
}

// RecordJob counts an executed intent.
func RecordJob(op, outcome string, latencyMs float64) {
	globalManager.jobs.WithLabelValues(op, outcome).Inc()
	globalManager.jobLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
