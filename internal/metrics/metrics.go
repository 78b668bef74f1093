package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Simulations counts engine simulate/recommend runs by outcome
	Simulations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "simulations_total", Help: "Cost simulations by operation and outcome."},
		[]string{"op", "outcome"},
	)
	// SimulationOptions tracks how many options a simulation enumerates
	SimulationOptions = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "simulation_options", Help: "Options enumerated per simulation.", Buckets: []float64{1, 2, 3, 5, 8, 13, 21}},
	)
	// CatalogReloads counts catalog refresh attempts by result
	CatalogReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "catalog_reloads_total", Help: "Catalog refreshes by result."},
		[]string{"result"},
	)
	// WebhookDeliveries counts webhook delivery outcomes by event type and status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Simulations)
		Registry.MustRegister(SimulationOptions)
		Registry.MustRegister(CatalogReloads)
		Registry.MustRegister(WebhookDeliveries)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
