// Package metrics provides Prometheus metrics for the rotation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector the service exposes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Assignment engine
	assignmentRuns        *prometheus.CounterVec
	assignmentDuration    prometheus.Histogram
	assignmentProposals   prometheus.Counter
	assignmentRelaxations prometheus.Counter
	scheduleSlots         prometheus.Gauge
	scheduleEmptyFields   prometheus.Gauge
	rosterSize            prometheus.Gauge

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Notifications
	notificationsEnqueued  prometheus.Counter
	notificationsSent      prometheus.Counter
	notificationsFailed    prometheus.Counter
	notificationsDuplicate prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps Go runtime collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mlatml",
		subsystem:        "rotation",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// Enabled reports whether the manager's collectors are registered.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	// Disabled managers still build collectors so recorders stay safe to
	// call, but nothing is registered for scraping.
	var reg prometheus.Registerer
	if m.enabled {
		reg = m.registry
	}
	auto := promauto.With(reg)

	m.assignmentRuns = auto.NewCounterVec(
		m.counterOpts("assignment_runs_total", "Assignment runs by outcome"),
		[]string{"outcome"},
	)
	m.assignmentDuration = auto.NewHistogram(
		m.histogramOpts("assignment_duration_milliseconds", "Wall time of a full load-assign-save cycle", m.histogramBuckets),
	)
	m.assignmentProposals = auto.NewCounter(
		m.counterOpts("assignment_proposals_total", "Presenter fields filled with a proposal"),
	)
	m.assignmentRelaxations = auto.NewCounter(
		m.counterOpts("assignment_relaxations_total", "Picks that needed a relaxed candidate pool"),
	)
	m.scheduleSlots = auto.NewGauge(
		m.gaugeOpts("schedule_slots", "Number of slots in the stored schedule"),
	)
	m.scheduleEmptyFields = auto.NewGauge(
		m.gaugeOpts("schedule_empty_fields", "Presenter fields still unfilled"),
	)
	m.rosterSize = auto.NewGauge(
		m.gaugeOpts("roster_size", "Number of participants on the roster"),
	)

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Store operation latency", m.histogramBuckets),
		[]string{"operation"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Store operation failures"),
		[]string{"operation", "kind"},
	)

	m.notificationsEnqueued = auto.NewCounter(
		m.counterOpts("notifications_enqueued_total", "Confirmation messages accepted by the queue"),
	)
	m.notificationsSent = auto.NewCounter(
		m.counterOpts("notifications_sent_total", "Confirmation messages delivered"),
	)
	m.notificationsFailed = auto.NewCounter(
		m.counterOpts("notifications_failed_total", "Confirmation messages that could not be delivered"),
	)
	m.notificationsDuplicate = auto.NewCounter(
		m.counterOpts("notifications_duplicate_total", "Confirmation messages skipped as already sent"),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current notification queue length"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Notification queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue length divided by capacity"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Rejected enqueues"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Notification workers running"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Time to deliver one message", m.histogramBuckets),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Worker delivery errors"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordAssignmentRun counts an assignment run with the given outcome
// ("ok", "invalid", "conflict", "error").
func RecordAssignmentRun(outcome string) {
	globalManager.assignmentRuns.WithLabelValues(outcome).Inc()
}

// RecordAssignmentDuration records the duration of an assignment cycle.
func RecordAssignmentDuration(latencyMs float64) {
	globalManager.assignmentDuration.Observe(latencyMs)
}

// RecordProposals adds n proposals.
func RecordProposals(n int) {
	globalManager.assignmentProposals.Add(float64(n))
}

// RecordRelaxations adds n relaxed picks.
func RecordRelaxations(n int) {
	globalManager.assignmentRelaxations.Add(float64(n))
}

// UpdateScheduleSlots sets the schedule size.
func UpdateScheduleSlots(n int) {
	globalManager.scheduleSlots.Set(float64(n))
}

// UpdateScheduleEmptyFields sets the number of unfilled presenter fields.
func UpdateScheduleEmptyFields(n int) {
	globalManager.scheduleEmptyFields.Set(float64(n))
}

// UpdateRosterSize sets the roster size.
func UpdateRosterSize(n int) {
	globalManager.rosterSize.Set(float64(n))
}

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation, kind string) {
	globalManager.storeErrors.WithLabelValues(operation, kind).Inc()
}

// RecordNotificationEnqueued counts an accepted notification.
func RecordNotificationEnqueued() {
	globalManager.notificationsEnqueued.Inc()
}

// RecordNotificationSent counts a delivered notification.
func RecordNotificationSent() {
	globalManager.notificationsSent.Inc()
}

// RecordNotificationFailed counts a failed delivery.
func RecordNotificationFailed() {
	globalManager.notificationsFailed.Inc()
}

// RecordNotificationDuplicate counts a deduplicated notification.
func RecordNotificationDuplicate() {
	globalManager.notificationsDuplicate.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records how long one delivery took.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Configure replaces the package-level manager with one built from opts on
// a fresh registry. Call it at startup, before anything records or scrapes.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// RefreshInterval returns the package-level manager's refresh interval.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}
