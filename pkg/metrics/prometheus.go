// Package metrics provides Prometheus metrics for the palmares ingestion service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the palmares service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ingestion metrics
	submissionsAccepted  prometheus.Counter
	submissionsDuplicate prometheus.Counter
	submissionsRejected  prometheus.Counter
	yearsIngested        prometheus.Counter
	yearsFailed          prometheus.Counter
	rowsExtracted        prometheus.Counter
	rowsDropped          prometheus.Counter
	pagesExtracted       prometheus.Counter
	entriesUndated       prometheus.Counter
	entriesNonNumeric    prometheus.Counter
	entriesWindIllegal   prometheus.Counter
	recordComputations   prometheus.Counter
	ingestLatency        prometheus.Histogram
	profilesUpdated      prometheus.Counter
	totalAthletes        prometheus.Gauge

	// Query metrics
	timelineBuilds *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec

	// Store metrics
	storeWriteLatency prometheus.Histogram
	storeReadLatency  prometheus.Histogram

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "palmares",
		subsystem:        "ingest",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.submissionsAccepted = auto.NewCounter(m.counter("submissions_accepted_total", "Page submissions accepted for ingestion"))
	m.submissionsDuplicate = auto.NewCounter(m.counter("submissions_duplicate_total", "Page submissions already seen"))
	m.submissionsRejected = auto.NewCounter(m.counter("submissions_rejected_total", "Page submissions rejected by backpressure or validation"))
	m.yearsIngested = auto.NewCounter(m.counter("years_ingested_total", "Athlete seasons merged into a profile"))
	m.yearsFailed = auto.NewCounter(m.counter("years_failed_total", "Athlete seasons skipped after a fetch or parse failure"))
	m.rowsExtracted = auto.NewCounter(m.counter("rows_extracted_total", "Result rows accepted by the table extractor"))
	m.rowsDropped = auto.NewCounter(m.counter("rows_dropped_total", "Table rows dropped as short or malformed"))
	m.pagesExtracted = auto.NewCounter(m.counter("pages_extracted_total", "Result pages run through the table extractor"))
	m.entriesUndated = auto.NewCounter(m.counter("entries_undated_total", "Entries whose date could not be parsed"))
	m.entriesNonNumeric = auto.NewCounter(m.counter("entries_non_numeric_total", "Entries whose mark carries no numeric value"))
	m.entriesWindIllegal = auto.NewCounter(m.counter("entries_wind_illegal_total", "Entries with a tailwind over the legal limit"))
	m.recordComputations = auto.NewCounter(m.counter("record_computations_total", "Record and season best selections"))
	m.ingestLatency = auto.NewHistogram(m.histogram("ingest_latency_milliseconds", "Time to ingest and rebuild one athlete profile"))
	m.profilesUpdated = auto.NewCounter(m.counter("profiles_updated_total", "Profiles rebuilt and stored"))
	m.totalAthletes = auto.NewGauge(m.gauge("athletes", "Athletes with a stored profile"))

	m.timelineBuilds = auto.NewCounterVec(m.counter("timeline_builds_total", "Timeline builds by the source tier that produced them"), []string{"tier"})
	m.cacheLookups = auto.NewCounterVec(m.counter("cache_lookups_total", "Timeline cache lookups by result"), []string{"result"})

	m.storeWriteLatency = auto.NewHistogram(m.histogram("store_write_latency_milliseconds", "Profile store write latency"))
	m.storeReadLatency = auto.NewHistogram(m.histogram("store_read_latency_milliseconds", "Profile store read latency"))

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Current size of the ingest queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Maximum ingest queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counter("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counter("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total", "Total number of enqueue errors"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogram("queue_processing_latency_milliseconds", "Time a job spent waiting in the queue"))

	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Configured number of ingest workers"))
	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active_count", "Number of active workers"))
	m.workerIdleCount = auto.NewGauge(m.gauge("worker_idle_count", "Number of idle workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds"))
	m.workerErrorRate = auto.NewCounter(m.counter("worker_errors_total", "Total number of worker errors"))

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counter("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counter("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", Name: "memory_usage_bytes",
		Help: "Heap bytes allocated", ConstLabels: m.constLabels,
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", Name: "goroutines",
		Help: "Number of goroutines", ConstLabels: m.constLabels,
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "system", Name: "gc_pause_milliseconds",
		Help: "Average GC pause", Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	})
}

// Ingestion Metrics Functions.

// RecordSubmissionAccepted increments the accepted submissions counter.
func RecordSubmissionAccepted() { globalManager.submissionsAccepted.Inc() }

// RecordSubmissionDuplicate increments the duplicate submissions counter.
func RecordSubmissionDuplicate() { globalManager.submissionsDuplicate.Inc() }

// RecordSubmissionRejected increments the rejected submissions counter.
func RecordSubmissionRejected() { globalManager.submissionsRejected.Inc() }

// RecordYearIngested increments the ingested seasons counter.
func RecordYearIngested() { globalManager.yearsIngested.Inc() }

// RecordYearFailed increments the failed seasons counter.
func RecordYearFailed() { globalManager.yearsFailed.Inc() }

// RecordRows adds extracted and dropped table rows.
func RecordRows(extracted, dropped int) {
	globalManager.rowsExtracted.Add(float64(extracted))
	globalManager.rowsDropped.Add(float64(dropped))
}

// RecordPageExtracted increments the extracted pages counter.
func RecordPageExtracted() { globalManager.pagesExtracted.Inc() }

// RecordEntryQuality adds normalization outcomes for a batch of entries.
func RecordEntryQuality(undated, nonNumeric, windIllegal int) {
	globalManager.entriesUndated.Add(float64(undated))
	globalManager.entriesNonNumeric.Add(float64(nonNumeric))
	globalManager.entriesWindIllegal.Add(float64(windIllegal))
}

// RecordRecordComputation counts one record selection.
func RecordRecordComputation() { globalManager.recordComputations.Inc() }

// RecordIngestLatency records profile ingestion latency in milliseconds.
func RecordIngestLatency(latencyMs float64) { globalManager.ingestLatency.Observe(latencyMs) }

// RecordProfileUpdated increments the profiles updated counter.
func RecordProfileUpdated() { globalManager.profilesUpdated.Inc() }

// UpdateTotalAthletes sets the number of stored profiles.
func UpdateTotalAthletes(count int) { globalManager.totalAthletes.Set(float64(count)) }

// RecordTimelineBuild counts a timeline build by source tier.
func RecordTimelineBuild(tier string) { globalManager.timelineBuilds.WithLabelValues(tier).Inc() }

// RecordCacheLookup counts a cache lookup; hit selects the result label.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// Store Metrics Functions.

// RecordStoreWriteLatency records profile store write latency.
func RecordStoreWriteLatency(latencyMs float64) { globalManager.storeWriteLatency.Observe(latencyMs) }

// RecordStoreReadLatency records profile store read latency.
func RecordStoreReadLatency(latencyMs float64) { globalManager.storeReadLatency.Observe(latencyMs) }

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueueRate.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeueRate.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) { globalManager.workerIdleCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrorRate.Inc() }

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
