// Package metrics holds the Prometheus instruments exported by `liftlog serve`.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager groups the API's instruments.
type Manager struct {
	// counters
	CounterRequests *prometheus.CounterVec // method, route, status
	CounterMemo     *prometheus.CounterVec // result: hit|miss
	CounterInsight  *prometheus.CounterVec // result: ok|failed|unavailable

	// gauges
	GaugeInFlight prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec // route
}

// NewRegistry returns a registry with the build info, Go runtime and process
// collectors already registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewManager registers the instruments on reg under namespace_subsystem_.
func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of handled API requests",
		}, []string{"method", "route", "status"}),
		CounterMemo: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "series_memo_total",
			Help:      "Prepared series lookups by memo outcome",
		}, []string{"result"}),
		CounterInsight: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "insight_total",
			Help:      "Insight requests by backend outcome",
		}, []string{"result"}),
		GaugeInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_in_flight",
			Help:      "Current number of requests being served",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1, 5},
		}, []string{"route"}),
	}
}
