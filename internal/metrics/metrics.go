// Package metrics owns the Prometheus collectors for the service.
//
// Collectors are registered on an injected Registerer instead of the global
// default so tests can build as many instances as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	cacheLookups     *prometheus.CounterVec
	cacheEvictions   *prometheus.CounterVec
	inFlightRejected *prometheus.CounterVec
	fetchesTotal     *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamRetries  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. If reg is also a
// Gatherer (a *prometheus.Registry is) Handler serves from it.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds",
		}, []string{"method", "endpoint"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_lookups_total",
			Help: "Cache lookups by cache name and result (hit or miss)",
		}, []string{"cache", "result"}),
		cacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_evictions_total",
			Help: "Entries evicted because the cache reached its size bound",
		}, []string{"cache"}),
		inFlightRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_inflight_rejections_total",
			Help: "Requests rejected because the same key was already being fetched",
		}, []string{"cache"}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fetches_total",
			Help: "Fetches started on a cache miss, by outcome",
		}, []string{"cache", "outcome"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_upstream_requests_total",
			Help: "Upstream HTTP attempts by resource and status (0 = transport error)",
		}, []string{"resource", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "dashboard_upstream_request_duration_seconds",
			Help: "Upstream HTTP attempt latencies in seconds",
		}, []string{"resource"}),
		upstreamRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_upstream_retries_total",
			Help: "Retries scheduled after a retryable upstream failure",
		}, []string{"resource"}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.cacheLookups,
		m.cacheEvictions,
		m.inFlightRejected,
		m.fetchesTotal,
		m.upstreamRequests,
		m.upstreamDuration,
		m.upstreamRetries,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the exposition format for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, endpoint string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// ForCache returns a recorder bound to one named cache.
func (m *Metrics) ForCache(name string) *CacheRecorder {
	return &CacheRecorder{m: m, name: name}
}

// ObserveUpstream implements github.Observer.
func (m *Metrics) ObserveUpstream(resource string, status int, elapsed time.Duration) {
	m.upstreamRequests.WithLabelValues(resource, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// ObserveRetry implements github.Observer.
func (m *Metrics) ObserveRetry(resource string) {
	m.upstreamRetries.WithLabelValues(resource).Inc()
}

// CacheRecorder implements service.CacheObserver for one cache.
type CacheRecorder struct {
	m    *Metrics
	name string
}

func (r *CacheRecorder) Hit()      { r.m.cacheLookups.WithLabelValues(r.name, "hit").Inc() }
func (r *CacheRecorder) Miss()     { r.m.cacheLookups.WithLabelValues(r.name, "miss").Inc() }
func (r *CacheRecorder) Rejected() { r.m.inFlightRejected.WithLabelValues(r.name).Inc() }
func (r *CacheRecorder) Evicted()  { r.m.cacheEvictions.WithLabelValues(r.name).Inc() }

func (r *CacheRecorder) Fetched(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.m.fetchesTotal.WithLabelValues(r.name, outcome).Inc()
}
