// Package metrics provides Prometheus metrics for the gathering-area collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector metric.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Portal traffic
	portalRequests       *prometheus.CounterVec
	portalRequestLatency *prometheus.HistogramVec
	tokenAcquisitions    *prometheus.CounterVec
	tokenExpiryRetries   *prometheus.CounterVec
	networkRetries       *prometheus.CounterVec

	// Resolution
	samplePointsQueried   prometheus.Counter
	neighborhoodsResolved prometheus.Counter
	neighborhoodsFailed   *prometheus.CounterVec
	gatheringAreasFound   prometheus.Counter
	gatheringAreasUnique  prometheus.Counter
	resolveLatency        prometheus.Histogram

	// Walk
	provincesWritten  prometheus.Counter
	provincesFailed   prometheus.Counter
	districtsFailed   prometheus.Counter
	workersInFlight   prometheus.Gauge
	queueDepth        prometheus.Gauge
	queueEnqueueError prometheus.Counter

	// Ops endpoint
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "toplanma",
		subsystem:        "collector",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.portalRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("portal_requests_total"),
		Help:        "Portal requests by operation and outcome",
		ConstLabels: labels,
	}, []string{"operation", "outcome"})

	m.portalRequestLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("portal_request_latency_milliseconds"),
		Help:        "Portal round-trip latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"operation"})

	m.tokenAcquisitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("token_acquisitions_total"),
		Help:        "Token fetches from the landing page by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.tokenExpiryRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("token_expiry_retries_total"),
		Help:        "Calls retried after the portal answered with a non-JSON body",
		ConstLabels: labels,
	}, []string{"operation"})

	m.networkRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("network_retries_total"),
		Help:        "Requests retried after a network failure",
		ConstLabels: labels,
	}, []string{"operation"})

	m.samplePointsQueried = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sample_points_queried_total"),
		Help:        "Polygon sample points sent as point queries",
		ConstLabels: labels,
	})

	m.neighborhoodsResolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("neighborhoods_resolved_total"),
		Help:        "Neighborhoods whose gathering areas were resolved",
		ConstLabels: labels,
	})

	m.neighborhoodsFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("neighborhoods_failed_total"),
		Help:        "Neighborhoods skipped after an error, by error kind",
		ConstLabels: labels,
	}, []string{"kind"})

	m.gatheringAreasFound = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("gathering_areas_found_total"),
		Help:        "Gathering areas attached to neighborhoods",
		ConstLabels: labels,
	})

	m.gatheringAreasUnique = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("gathering_areas_unique_total"),
		Help:        "Distinct gathering area ids seen during the run",
		ConstLabels: labels,
	})

	m.resolveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("resolve_latency_milliseconds"),
		Help:        "Time to resolve the gathering areas of one neighborhood",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.provincesWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("provinces_written_total"),
		Help:        "Province documents written",
		ConstLabels: labels,
	})

	m.provincesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("provinces_failed_total"),
		Help:        "Provinces aborted after an error",
		ConstLabels: labels,
	})

	m.districtsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("districts_failed_total"),
		Help:        "Districts skipped after an error",
		ConstLabels: labels,
	})

	m.workersInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("workers_in_flight"),
		Help:        "Neighborhoods currently being processed",
		ConstLabels: labels,
	})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_depth"),
		Help:        "Neighborhood jobs waiting for a worker",
		ConstLabels: labels,
	})

	m.queueEnqueueError = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_errors_total"),
		Help:        "Jobs rejected by a full or closed queue",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Ops endpoint requests",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "Ops endpoint request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordPortalRequest counts one portal round trip and its latency.
func RecordPortalRequest(operation, outcome string, latencyMs float64) {
	globalManager.portalRequests.WithLabelValues(operation, outcome).Inc()
	globalManager.portalRequestLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordTokenAcquisition counts a landing page token fetch.
func RecordTokenAcquisition(outcome string) {
	globalManager.tokenAcquisitions.WithLabelValues(outcome).Inc()
}

// RecordTokenExpiryRetry counts a refresh-and-retry cycle.
func RecordTokenExpiryRetry(operation string) {
	globalManager.tokenExpiryRetries.WithLabelValues(operation).Inc()
}

// RecordNetworkRetry counts a backoff retry after a network failure.
func RecordNetworkRetry(operation string) {
	globalManager.networkRetries.WithLabelValues(operation).Inc()
}

// RecordSamplePoints adds n queried sample points.
func RecordSamplePoints(n int) {
	globalManager.samplePointsQueried.Add(float64(n))
}

// RecordNeighborhoodResolved counts a resolved neighborhood and its areas.
func RecordNeighborhoodResolved(areas int, latencyMs float64) {
	globalManager.neighborhoodsResolved.Inc()
	globalManager.gatheringAreasFound.Add(float64(areas))
	globalManager.resolveLatency.Observe(latencyMs)
}

// RecordNeighborhoodFailed counts a skipped neighborhood.
func RecordNeighborhoodFailed(kind string) {
	globalManager.neighborhoodsFailed.WithLabelValues(kind).Inc()
}

// RecordUniqueGatheringArea counts a gathering area id seen for the first time.
func RecordUniqueGatheringArea() {
	globalManager.gatheringAreasUnique.Inc()
}

// RecordProvinceWritten counts a persisted province document.
func RecordProvinceWritten() {
	globalManager.provincesWritten.Inc()
}

// RecordProvinceFailed counts an aborted province.
func RecordProvinceFailed() {
	globalManager.provincesFailed.Inc()
}

// RecordDistrictFailed counts a skipped district.
func RecordDistrictFailed() {
	globalManager.districtsFailed.Inc()
}

// AddWorkersInFlight moves the in-flight gauge by delta.
func AddWorkersInFlight(delta int) {
	globalManager.workersInFlight.Add(float64(delta))
}

// UpdateQueueDepth sets the number of waiting jobs.
func UpdateQueueDepth(n int) {
	globalManager.queueDepth.Set(float64(n))
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueError.Inc()
}

// RecordHTTPRequest records an ops endpoint request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
