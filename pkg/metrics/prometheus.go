// Package metrics provides Prometheus metrics for the peer evaluation service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// defaultLatencyBuckets are in milliseconds.
var defaultLatencyBuckets = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // immutable defaults

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets  []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	metricPrefix    string
	registry        prometheus.Registerer

	// Submissions
	submissionsAccepted  *prometheus.CounterVec
	submissionsRejected  *prometheus.CounterVec
	submissionsDuplicate prometheus.Counter
	storeWriteLatency    *prometheus.HistogramVec
	storeErrors          *prometheus.CounterVec
	recordsStored        *prometheus.GaugeVec
	idempotencyKeys      prometheus.Gauge

	// Reports
	reportLatency     *prometheus.HistogramVec
	studentsComplete  prometheus.Gauge
	matchesIncomplete prometheus.Counter

	// Static data sources
	rosterSize  prometheus.Gauge
	catalogSize prometheus.Gauge
	catalogSkip prometheus.Gauge

	// Auth
	logins        *prometheus.CounterVec
	tokensRevoked prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "peereval",
		subsystem:       "core",
		latencyBuckets:  defaultLatencyBuckets,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often callers should refresh the polled gauges.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric family
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.submissionsAccepted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("submissions_accepted_total"),
		Help:        "Score submissions persisted, by kind (self, peer, teacher)",
		ConstLabels: labels,
	}, []string{"kind"})

	m.submissionsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("submissions_rejected_total"),
		Help:        "Score submissions rejected before persistence, by kind and error code",
		ConstLabels: labels,
	}, []string{"kind", "code"})

	m.submissionsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("submissions_duplicate_total"),
		Help:        "Submissions replayed with an already accepted idempotency key",
		ConstLabels: labels,
	})

	m.storeWriteLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_write_latency_milliseconds"),
		Help:        "Score store write latency in milliseconds, by kind",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"kind"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_errors_total"),
		Help:        "Score store failures, by operation",
		ConstLabels: labels,
	}, []string{"operation"})

	m.reportLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("report_latency_milliseconds"),
		Help:        "Latency of summary, match and completion computations in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"report"})

	m.studentsComplete = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("students_complete"),
		Help:        "Students with teacher, self and peer data as of the last summary",
		ConstLabels: labels,
	})

	m.matchesIncomplete = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matches_incomplete_total"),
		Help:        "Match requests answered without ranking because data was incomplete",
		ConstLabels: labels,
	})

	m.recordsStored = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("records_stored"),
		Help:        "Persisted score records by kind",
		ConstLabels: labels,
	}, []string{"kind"})

	m.idempotencyKeys = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("idempotency_keys"),
		Help:        "Idempotency keys currently remembered",
		ConstLabels: labels,
	})

	m.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("roster_size"),
		Help:        "Number of students in the loaded roster",
		ConstLabels: labels,
	})

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("catalog_size"),
		Help:        "Number of reference entities in the loaded catalog",
		ConstLabels: labels,
	})

	m.catalogSkip = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("catalog_rows_skipped"),
		Help:        "Catalog rows skipped at load because they were malformed",
		ConstLabels: labels,
	})

	m.logins = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("logins_total"),
		Help:        "Login attempts by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.tokensRevoked = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("tokens_revoked_total"),
		Help:        "Session tokens revoked through logout",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_errors_total"),
		Help:        "HTTP error responses by endpoint and error code",
		ConstLabels: labels,
	}, []string{"endpoint", "code"})
}

// RecordSubmissionAccepted counts a persisted submission.
func (m *Manager) RecordSubmissionAccepted(kind string) {
	if m.enabled {
		m.submissionsAccepted.WithLabelValues(kind).Inc()
	}
}

// RecordSubmissionRejected counts a submission refused before persistence.
func (m *Manager) RecordSubmissionRejected(kind, code string) {
	if m.enabled {
		m.submissionsRejected.WithLabelValues(kind, code).Inc()
	}
}

// RecordSubmissionDuplicate counts an idempotent replay.
func (m *Manager) RecordSubmissionDuplicate() {
	if m.enabled {
		m.submissionsDuplicate.Inc()
	}
}

// RecordStoreWriteLatency records a store write duration.
func (m *Manager) RecordStoreWriteLatency(kind string, d time.Duration) {
	if m.enabled {
		m.storeWriteLatency.WithLabelValues(kind).Observe(float64(d.Microseconds()) / 1000)
	}
}

// RecordStoreError counts a store failure.
func (m *Manager) RecordStoreError(operation string) {
	if m.enabled {
		m.storeErrors.WithLabelValues(operation).Inc()
	}
}

// RecordReportLatency records how long a report took to compute.
func (m *Manager) RecordReportLatency(report string, d time.Duration) {
	if m.enabled {
		m.reportLatency.WithLabelValues(report).Observe(float64(d.Microseconds()) / 1000)
	}
}

// UpdateStudentsComplete sets the complete-students gauge.
func (m *Manager) UpdateStudentsComplete(n int) {
	if m.enabled {
		m.studentsComplete.Set(float64(n))
	}
}

// RecordMatchIncomplete counts a match answered as incomplete.
func (m *Manager) RecordMatchIncomplete() {
	if m.enabled {
		m.matchesIncomplete.Inc()
	}
}

// UpdateRecordsStored sets the stored record gauge for kind.
func (m *Manager) UpdateRecordsStored(kind string, n int64) {
	if m.enabled {
		m.recordsStored.WithLabelValues(kind).Set(float64(n))
	}
}

// UpdateIdempotencyKeys sets the remembered idempotency key gauge.
func (m *Manager) UpdateIdempotencyKeys(n int64) {
	if m.enabled {
		m.idempotencyKeys.Set(float64(n))
	}
}

// UpdateDataSources sets roster and catalog gauges after load.
func (m *Manager) UpdateDataSources(roster, catalog, skipped int) {
	if m.enabled {
		m.rosterSize.Set(float64(roster))
		m.catalogSize.Set(float64(catalog))
		m.catalogSkip.Set(float64(skipped))
	}
}

// RecordLogin counts a login attempt by outcome.
func (m *Manager) RecordLogin(outcome string) {
	if m.enabled {
		m.logins.WithLabelValues(outcome).Inc()
	}
}

// RecordTokenRevoked counts a logout.
func (m *Manager) RecordTokenRevoked() {
	if m.enabled {
		m.tokensRevoked.Inc()
	}
}

// RecordHTTPRequest records one HTTP request and its duration in milliseconds.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordHTTPError counts an error response.
func (m *Manager) RecordHTTPError(endpoint, code string) {
	if m.enabled {
		m.errorsByEndpoint.WithLabelValues(endpoint, code).Inc()
	}
}

// Package-level helpers delegate to the global manager.

// RecordSubmissionAccepted counts a persisted submission.
func RecordSubmissionAccepted(kind string) { globalManager.RecordSubmissionAccepted(kind) }

// RecordSubmissionRejected counts a rejected submission.
func RecordSubmissionRejected(kind, code string) {
	globalManager.RecordSubmissionRejected(kind, code)
}

// RecordSubmissionDuplicate counts an idempotent replay.
func RecordSubmissionDuplicate() { globalManager.RecordSubmissionDuplicate() }

// RecordStoreWriteLatency records a store write duration.
func RecordStoreWriteLatency(kind string, d time.Duration) {
	globalManager.RecordStoreWriteLatency(kind, d)
}

// RecordStoreError counts a store failure.
func RecordStoreError(operation string) { globalManager.RecordStoreError(operation) }

// RecordReportLatency records report computation time.
func RecordReportLatency(report string, d time.Duration) {
	globalManager.RecordReportLatency(report, d)
}

// UpdateStudentsComplete sets the complete-students gauge.
func UpdateStudentsComplete(n int) { globalManager.UpdateStudentsComplete(n) }

// RecordMatchIncomplete counts a match answered as incomplete.
func RecordMatchIncomplete() { globalManager.RecordMatchIncomplete() }

// UpdateDataSources sets roster and catalog gauges.
func UpdateDataSources(roster, catalog, skipped int) {
	globalManager.UpdateDataSources(roster, catalog, skipped)
}

// RecordLogin counts a login attempt.
func RecordLogin(outcome string) { globalManager.RecordLogin(outcome) }

// RecordTokenRevoked counts a logout.
func RecordTokenRevoked() { globalManager.RecordTokenRevoked() }

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, code string) { globalManager.RecordHTTPError(endpoint, code) }

// UpdateRecordsStored sets the stored record gauge for kind.
func UpdateRecordsStored(kind string, n int64) { globalManager.UpdateRecordsStored(kind, n) }

// UpdateIdempotencyKeys sets the remembered idempotency key gauge.
func UpdateIdempotencyKeys(n int64) { globalManager.UpdateIdempotencyKeys(n) }

// RefreshInterval returns the gauge refresh interval of the global manager.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

var runtimeOnce sync.Once

// RegisterRuntimeCollectors adds Go runtime and process collectors to the
// custom registry. Safe to call more than once.
func RegisterRuntimeCollectors() {
	runtimeOnce.Do(func() {
		customRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the custom registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
