package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds the engine's Prometheus instruments
type Collectors struct {
	Registry *prometheus.Registry

	ScansTotal        *prometheus.CounterVec
	DispatchTotal     *prometheus.CounterVec
	AgentTickDuration prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// NewCollectors registers the engine metrics on a fresh registry
func NewCollectors() *Collectors {
	registry := prometheus.NewRegistry()

	c := &Collectors{
		Registry: registry,
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_scans_total",
			Help: "Barcode scans by resolved action and outcome",
		}, []string{"action", "outcome"}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_assignments_total",
			Help: "Leg assignments by source (manual, batch, agent, incident)",
		}, []string{"source"}),
		AgentTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_agent_cycle_seconds",
			Help:    "Duration of optimization cycles",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_http_request_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		c.ScansTotal,
		c.DispatchTotal,
		c.AgentTickDuration,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}
