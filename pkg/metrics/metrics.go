// Package metrics exposes Prometheus metrics for the server.
//
// Metrics are opt-in: when Init has not been called every recording method
// is a no-op, so instrumented code paths never need to check a flag.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// Init creates the process metrics registry with the standard Go and process
// collectors. Calling Init twice returns the existing registry.
func Init() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return registry
}

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the registry, nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	reg := GetRegistry()
	if reg == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// HTTPMetrics instruments the HTTP surface of the server.
type HTTPMetrics struct {
	requests  *prometheus.CounterVec
	downloads prometheus.Counter
	deploys   prometheus.Counter
}

// NewHTTPMetrics creates the HTTP metric set. Returns nil when metrics are
// disabled; all methods are nil-safe.
func NewHTTPMetrics() *HTTPMetrics {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	return &HTTPMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quarry_http_requests_total",
				Help: "Total HTTP requests by method and status code",
			},
			[]string{"method", "status"},
		),
		downloads: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quarry_artifact_downloads_total",
				Help: "Total artifact downloads served",
			},
		),
		deploys: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quarry_artifact_deploys_total",
				Help: "Total artifact deployments accepted",
			},
		),
	}
}

// RecordRequest counts one finished HTTP request.
func (m *HTTPMetrics) RecordRequest(method, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, status).Inc()
}

// RecordDownload counts one served artifact download.
func (m *HTTPMetrics) RecordDownload() {
	if m == nil {
		return
	}
	m.downloads.Inc()
}

// RecordDeploy counts one accepted artifact deployment.
func (m *HTTPMetrics) RecordDeploy() {
	if m == nil {
		return
	}
	m.deploys.Inc()
}
