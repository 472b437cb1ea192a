// Package metrics provides Prometheus metrics for the cider analytics engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Change event flow
	eventsEnqueued *prometheus.CounterVec
	eventsApplied  *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
	applyLatency   prometheus.Histogram

	// Queue
	queueLength   prometheus.Gauge
	queueCapacity prometheus.Gauge
	drainRuns     prometheus.Counter
	drainBatch    prometheus.Histogram
	drainActive   prometheus.Gauge

	// State
	initializeDuration prometheus.Histogram
	initializeRecords  *prometheus.GaugeVec
	engineReady        prometheus.Gauge
	totalTastings      prometheus.Gauge
	totalExperiences   prometheus.Gauge
	invalidatedMetrics prometheus.Gauge
	resets             prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry and returns it. Call it once at startup, before any metric is
// recorded or the registry is served.
func Configure(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	opts = append(opts, WithPrometheusRegistry(registry))
	customRegistry = registry
	globalManager = NewManager(opts...)
	return globalManager
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cider",
		subsystem:        "analytics",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500},
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

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.eventsEnqueued = auto.NewCounterVec(m.counterOpts("events_enqueued_total",
		"Change events accepted onto the update queue"), []string{"type"})
	m.eventsApplied = auto.NewCounterVec(m.counterOpts("events_applied_total",
		"Change events applied to the state store"), []string{"type"})
	m.eventsDropped = auto.NewCounterVec(m.counterOpts("events_dropped_total",
		"Change events refused, by reason"), []string{"type", "reason"})
	m.applyLatency = auto.NewHistogram(m.histogramOpts("event_apply_latency_milliseconds",
		"Time to apply a single change event", m.histogramBuckets))

	m.queueLength = auto.NewGauge(m.gaugeOpts("queue_length", "Change events waiting to be drained"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Configured queue capacity (0 = unbounded)"))
	m.drainRuns = auto.NewCounter(m.counterOpts("drain_runs_total", "Number of drain loops started"))
	m.drainBatch = auto.NewHistogram(m.histogramOpts("drain_batch_size",
		"Events processed by one drain loop", prometheus.ExponentialBuckets(1, 4, 8)))
	m.drainActive = auto.NewGauge(m.gaugeOpts("drain_active", "1 while a drain loop is running"))

	m.initializeDuration = auto.NewHistogram(m.histogramOpts("initialize_duration_milliseconds",
		"Full rebuild duration", prometheus.ExponentialBuckets(1, 4, 10)))
	m.initializeRecords = auto.NewGaugeVec(m.gaugeOpts("initialize_records",
		"Records seen by the last full rebuild"), []string{"entity", "outcome"})
	m.engineReady = auto.NewGauge(m.gaugeOpts("ready", "1 when the state store is initialized"))
	m.totalTastings = auto.NewGauge(m.gaugeOpts("total_tastings", "Tastings currently counted"))
	m.totalExperiences = auto.NewGauge(m.gaugeOpts("total_experiences", "Experiences currently counted"))
	m.invalidatedMetrics = auto.NewGauge(m.gaugeOpts("invalidated_metrics", "Derived metrics awaiting recomputation"))
	m.resets = auto.NewCounter(m.counterOpts("resets_total", "Number of state resets"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// RecordEventEnqueued counts an event accepted by the queue.
func RecordEventEnqueued(eventType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsEnqueued.WithLabelValues(eventType).Inc()
}

// RecordEventApplied counts an event applied to state and observes its latency.
func RecordEventApplied(eventType string, latency time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsApplied.WithLabelValues(eventType).Inc()
	globalManager.applyLatency.Observe(float64(latency.Microseconds()) / 1000)
}

// RecordEventDropped counts an event that was refused.
func RecordEventDropped(eventType, reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsDropped.WithLabelValues(eventType, reason).Inc()
}

// UpdateQueueLength sets the current queue length.
func UpdateQueueLength(n int) {
	globalManager.queueLength.Set(float64(n))
}

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(n int) {
	globalManager.queueCapacity.Set(float64(n))
}

// RecordDrainStarted marks a drain loop as running.
func RecordDrainStarted() {
	globalManager.drainRuns.Inc()
	globalManager.drainActive.Set(1)
}

// RecordDrainFinished marks the drain loop idle and records how much it did.
func RecordDrainFinished(processed int) {
	globalManager.drainActive.Set(0)
	globalManager.drainBatch.Observe(float64(processed))
}

// RecordInitialize records a completed full rebuild.
func RecordInitialize(d time.Duration, tastings, experiences, skippedTastings, skippedExperiences int) {
	globalManager.initializeDuration.Observe(float64(d.Milliseconds()))
	globalManager.initializeRecords.WithLabelValues("tasting", "applied").Set(float64(tastings))
	globalManager.initializeRecords.WithLabelValues("experience", "applied").Set(float64(experiences))
	globalManager.initializeRecords.WithLabelValues("tasting", "skipped").Set(float64(skippedTastings))
	globalManager.initializeRecords.WithLabelValues("experience", "skipped").Set(float64(skippedExperiences))
}

// UpdateReady sets the ready gauge.
func UpdateReady(ready bool) {
	globalManager.engineReady.Set(boolGauge(ready))
}

// UpdateTotals sets the record count gauges.
func UpdateTotals(tastings, experiences int) {
	globalManager.totalTastings.Set(float64(tastings))
	globalManager.totalExperiences.Set(float64(experiences))
}

// UpdateInvalidatedMetrics sets the number of stale derived metrics.
func UpdateInvalidatedMetrics(n int) {
	globalManager.invalidatedMetrics.Set(float64(n))
}

// RecordReset counts a state reset.
func RecordReset() {
	globalManager.resets.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
