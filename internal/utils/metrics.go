package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector tracks request volume, error volume and per-operation
// latency for the engine. Backed by Prometheus collectors so the gateway
// can expose them on /metrics.
type MetricsCollector struct {
	requests   prometheus.Counter
	errors     prometheus.Counter
	operations *prometheus.HistogramVec

	registry *prometheus.Registry
}

func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firechat_requests_total",
			Help: "Total requests handled by the engine.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firechat_errors_total",
			Help: "Total requests that ended in an error.",
		}),
		operations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "firechat_operation_duration_seconds",
			Help:    "Latency of engine operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		registry: prometheus.NewRegistry(),
	}

	mc.registry.MustRegister(mc.requests, mc.errors, mc.operations)
	return mc
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.requests.Inc()
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.errors.Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.operations.WithLabelValues(operationName).Observe(duration.Seconds())
}

// Registry exposes the underlying registry for the /metrics handler.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}
