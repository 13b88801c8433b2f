// Package metrics provides Prometheus metrics for hirescope.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheOps        *prometheus.CounterVec
	LLMRequests     *prometheus.CounterVec
	GitHubRequests  *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hirescope_requests_total",
				Help: "Total number of HTTP requests by route and status.",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hirescope_request_duration_seconds",
				Help:    "HTTP request processing duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		CacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hirescope_cache_ops_total",
				Help: "Prompt cache operations by op and result (hit, miss, error).",
			},
			[]string{"op", "result"},
		),
		LLMRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hirescope_llm_requests_total",
				Help: "Total summarization requests by status.",
			},
			[]string{"status"},
		),
		GitHubRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hirescope_github_requests_total",
				Help: "Total GitHub GraphQL queries by query name and status.",
			},
			[]string{"query", "status"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hirescope_errors_total",
				Help: "Total errors by module and kind.",
			},
			[]string{"module", "kind"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.CacheOps)
	reg.MustRegister(m.LLMRequests)
	reg.MustRegister(m.GitHubRequests)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the HTTP request counter.
func (m *Metrics) RecordRequest(route, status string) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}

// ObserveDuration records request duration.
func (m *Metrics) ObserveDuration(route string, seconds float64) {
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordCacheOp increments the cache operation counter.
func (m *Metrics) RecordCacheOp(op, result string) {
	m.CacheOps.WithLabelValues(op, result).Inc()
}

// RecordLLMRequest increments the LLM request counter.
func (m *Metrics) RecordLLMRequest(status string) {
	m.LLMRequests.WithLabelValues(status).Inc()
}

// RecordGitHubRequest increments the GitHub query counter.
func (m *Metrics) RecordGitHubRequest(query, status string) {
	m.GitHubRequests.WithLabelValues(query, status).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, kind string) {
	m.ErrorsTotal.WithLabelValues(module, kind).Inc()
}
