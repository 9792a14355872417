// Package metrics provides Prometheus metrics for the bookability service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	registry         prometheus.Registerer

	// Scoring engine
	evaluations       prometheus.Counter
	evaluationLatency prometheus.Histogram
	totalScore        prometheus.Histogram
	levelEvaluations  *prometheus.CounterVec
	levelDistribution *prometheus.GaugeVec

	// Snapshot ingestion
	snapshotsProcessed prometheus.Counter
	snapshotsDuplicate prometheus.Counter
	snapshotsStale     prometheus.Counter
	rateLimited        *prometheus.CounterVec

	// Ranking store
	leaderboardUpdates      prometheus.Counter
	leaderboardErrors       prometheus.Counter
	totalDJs                prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram
	snapshotRebuildDuration prometheus.Histogram
	snapshotLastUnix        prometheus.Gauge

	// History
	historyWrites      prometheus.Counter
	historyWriteErrors prometheus.Counter

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	workerMessagesPerSecond prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton collectors

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // collectors must exist before any Record call
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bookability",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
		scoreBuckets:     prometheus.LinearBuckets(10, 10, 10),
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.evaluations = m.counter("evaluations_total", "Total number of bookability evaluations")
	m.evaluationLatency = m.histogram("evaluation_latency_milliseconds", "Bookability evaluation latency in milliseconds", m.histogramBuckets)
	m.totalScore = m.histogram("total_score", "Distribution of computed total bookability scores", m.scoreBuckets)
	m.levelEvaluations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "level_evaluations_total", Help: "Evaluations by resulting level",
	}, []string{"level"})
	m.levelDistribution = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "level_distribution", Help: "Number of ranked DJs currently at each level",
	}, []string{"level"})

	m.snapshotsProcessed = m.counter("snapshots_processed_total", "Snapshots evaluated and applied to the ranking")
	m.snapshotsDuplicate = m.counter("snapshots_duplicate_total", "Snapshots rejected as duplicates")
	m.snapshotsStale = m.counter("snapshots_stale_total", "Snapshots older than the ranked one")
	m.rateLimited = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rate_limited_total", Help: "Requests rejected by the ingest rate limiter",
	}, []string{"endpoint"})

	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Ranking store updates")
	m.leaderboardErrors = m.counter("leaderboard_errors_total", "Ranking store update failures")
	m.totalDJs = m.gauge("total_djs", "Number of ranked DJs")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Ranking store update latency", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Ranking store query latency", m.histogramBuckets)
	m.snapshotRebuildDuration = m.histogram("repository_snapshot_rebuild_milliseconds", "Ranking snapshot rebuild duration", m.histogramBuckets)
	m.snapshotLastUnix = m.gauge("repository_snapshot_last_unixtime", "Unix time of the last ranking snapshot")

	m.historyWrites = m.counter("history_writes_total", "Snapshot history rows written")
	m.historyWriteErrors = m.counter("history_write_errors_total", "Snapshot history write failures")

	m.queueSize = m.gauge("queue_size", "Current size of the snapshot queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the snapshot queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Snapshots enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Snapshots dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Rejected enqueue attempts")
	m.queueProcessingLatency = m.histogram("queue_enqueue_latency_milliseconds", "Enqueue latency", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Number of evaluation workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-snapshot worker latency", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Worker processing failures")
	m.workerMessagesPerSecond = m.gauge("worker_messages_per_second", "Snapshots processed per second across the pool")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total", Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_component_total", Help: "Errors by component and type",
	}, []string{"component", "error_type"})
	m.errorsByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_type_total", Help: "Errors by type and severity",
	}, []string{"error_type", "severity"})
	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_endpoint_total", Help: "HTTP errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "error_latency_milliseconds", Help: "Latency of failed operations",
		Buckets: m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause", m.histogramBuckets)
}

// Scoring engine.

// RecordEvaluation records one engine evaluation and its outcome.
func RecordEvaluation(totalScore, level int, latencyMs float64) {
	globalManager.evaluations.Inc()
	globalManager.evaluationLatency.Observe(latencyMs)
	globalManager.totalScore.Observe(float64(totalScore))
	globalManager.levelEvaluations.WithLabelValues(strconv.Itoa(level)).Inc()
}

// UpdateLevelDistribution sets the number of ranked DJs at a level.
func UpdateLevelDistribution(level, count int) {
	globalManager.levelDistribution.WithLabelValues(strconv.Itoa(level)).Set(float64(count))
}

// Snapshot ingestion.

// RecordSnapshotProcessed increments the processed snapshot counter.
func RecordSnapshotProcessed() { globalManager.snapshotsProcessed.Inc() }

// RecordSnapshotDuplicate increments the duplicate snapshot counter.
func RecordSnapshotDuplicate() { globalManager.snapshotsDuplicate.Inc() }

// RecordSnapshotStale increments the stale snapshot counter.
func RecordSnapshotStale() { globalManager.snapshotsStale.Inc() }

// RecordRateLimited counts a request refused by the rate limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// Ranking store.

// RecordLeaderboardUpdate increments the leaderboard update counter.
func RecordLeaderboardUpdate() { globalManager.leaderboardUpdates.Inc() }

// RecordLeaderboardError increments the leaderboard error counter.
func RecordLeaderboardError() { globalManager.leaderboardErrors.Inc() }

// UpdateTotalDJs sets the number of ranked DJs.
func UpdateTotalDJs(count int) { globalManager.totalDJs.Set(float64(count)) }

// RecordRepositoryUpdateLatency records ranking store update latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records ranking store query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordRepositorySnapshot records a ranking snapshot rebuild.
func RecordRepositorySnapshot(durationMs float64, unix int64) {
	globalManager.snapshotRebuildDuration.Observe(durationMs)
	globalManager.snapshotLastUnix.Set(float64(unix))
}

// History.

// RecordHistoryWrite increments the history write counter.
func RecordHistoryWrite() { globalManager.historyWrites.Inc() }

// RecordHistoryWriteError increments the history write error counter.
func RecordHistoryWriteError() { globalManager.historyWriteErrors.Inc() }

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets queue utilization in [0,1].
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records per-snapshot worker latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// UpdateWorkerMessagesPerSecond sets the pool throughput.
func UpdateWorkerMessagesPerSecond(rate float64) { globalManager.workerMessagesPerSecond.Set(rate) }

// HTTP.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
