// Package metrics provides Prometheus instrumentation for sourcify.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled     bool
	serviceName string

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Verification metrics
	runTotal      *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	contractTotal *prometheus.CounterVec
	sourceTotal   *prometheus.CounterVec
)

// Init initializes the metrics system.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	runTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_run_total",
			Help: "Total number of verification runs",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "verification_run_duration_seconds",
			Help:    "Verification run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	contractTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_contract_total",
			Help: "Total number of checked contracts by validity",
		},
		[]string{"result"},
	)

	sourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_source_total",
			Help: "Total number of resolved source entries by outcome",
		},
		[]string{"outcome"},
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// ServiceName returns the configured service name for metric labels.
func ServiceName() string {
	return serviceName
}
