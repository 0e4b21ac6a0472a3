package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis outcomes used as the "outcome" label.
const (
	OutcomeFit      = "fit"
	OutcomeNoFit    = "no_fit"
	OutcomeNoWindow = "no_window"
	OutcomeError    = "error"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Analysis
	analyses         *prometheus.CounterVec
	candidates       prometheus.Counter
	fitsValid        prometheus.Counter
	fitsInvalid      prometheus.Counter
	scanDuration     prometheus.Histogram
	bestTc           prometheus.Gauge
	bestBeta         prometheus.Gauge
	bestRSquared     prometheus.Gauge
	scanRowsLoaded   prometheus.Counter
	scanRowsSkipped  prometheus.Counter
	runsStored       prometheus.Gauge
	lastAnalysisUnix prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "reanalysis",
		subsystem:        "tc",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_total",
		Help:      "Total number of reanalysis runs by outcome",
	}, []string{"outcome"})
	m.candidates = m.counter("candidates_evaluated_total", "Total number of Tc candidates fitted")
	m.fitsValid = m.counter("fits_valid_total", "Total number of candidate fits with positive slope and R² in (0, 1]")
	m.fitsInvalid = m.counter("fits_invalid_total", "Total number of rejected candidate fits")
	m.scanDuration = m.histogram("scan_duration_milliseconds", "Duration of a full Tc scan in milliseconds")
	m.bestTc = m.gauge("best_tc", "Tc of the most recent best fit")
	m.bestBeta = m.gauge("best_beta", "Beta of the most recent best fit")
	m.bestRSquared = m.gauge("best_r_squared", "R² of the most recent best fit")
	m.scanRowsLoaded = m.counter("scan_rows_loaded_total", "Total number of scan CSV rows parsed")
	m.scanRowsSkipped = m.counter("scan_rows_skipped_total", "Total number of malformed scan CSV rows skipped")
	m.runsStored = m.gauge("runs_stored", "Number of analysis runs held in the run store")
	m.lastAnalysisUnix = m.gauge("last_analysis_unix", "Unix timestamp of the last completed analysis")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total number of HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the candidate job queue")
	m.queueSize = m.gauge("queue_size", "Current number of queued candidate jobs")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of candidate jobs enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Total number of candidate jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of workers currently fitting candidates")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-candidate fit latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker failures")
}

// RecordAnalysis counts one finished analysis under outcome.
func RecordAnalysis(outcome string) {
	globalManager.analyses.WithLabelValues(outcome).Inc()
}

// RecordCandidates adds evaluated candidates split by validity.
func RecordCandidates(valid, invalid int) {
	globalManager.candidates.Add(float64(valid + invalid))
	globalManager.fitsValid.Add(float64(valid))
	globalManager.fitsInvalid.Add(float64(invalid))
}

// RecordScanDuration records the wall time of a full Tc scan.
func RecordScanDuration(durationMs float64) {
	globalManager.scanDuration.Observe(durationMs)
}

// UpdateBestFit publishes the latest best fit.
func UpdateBestFit(tc, beta, rSquared float64) {
	globalManager.bestTc.Set(tc)
	globalManager.bestBeta.Set(beta)
	globalManager.bestRSquared.Set(rSquared)
}

// RecordScanRows counts parsed and skipped CSV rows.
func RecordScanRows(loaded, skipped int) {
	globalManager.scanRowsLoaded.Add(float64(loaded))
	globalManager.scanRowsSkipped.Add(float64(skipped))
}

// UpdateRunsStored sets the number of stored runs.
func UpdateRunsStored(count int) {
	globalManager.runsStored.Set(float64(count))
}

// UpdateLastAnalysis sets the completion time of the last analysis.
func UpdateLastAnalysis(unix int64) {
	globalManager.lastAnalysisUnix.Set(float64(unix))
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records the latency of one candidate fit.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in text exposition format to path, for
// node_exporter's textfile collector after one-shot CLI runs.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrTextfile, err)
	}
	return nil
}
