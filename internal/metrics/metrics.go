// Package metrics exposes Prometheus counters/histograms driven by the
// same eventbus the otel subscriber listens on, rather than being wired
// into the compiler or dispatchers directly — telemetry exporters are
// external collaborators of the gateway, not part of its request path.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/fluxweld/gatewing/internal/eventbus"
	events "github.com/fluxweld/gatewing/internal/events"
)

type collectors struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	upstreamTotal   *prometheus.CounterVec
	upstreamSeconds *prometheus.HistogramVec
	loaderBatches   *prometheus.HistogramVec
}

// Register creates the gateway's metrics and subscribes them to the
// global eventbus. Call once during startup, before serving traffic.
func Register() {
	c := &collectors{
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatewing",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests served, by status code",
		}, []string{"status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatewing",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		upstreamTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatewing",
			Name:      "upstream_requests_total",
			Help:      "Total upstream HTTP resolver calls, by method and outcome",
		}, []string{"method", "outcome"}),
		upstreamSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatewing",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream HTTP resolver call duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		loaderBatches: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatewing",
			Name:      "loader_batch_size",
			Help:      "Number of keys coalesced into one DataLoader batch",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}, []string{"loader"}),
	}
	c.register()
}

func (c *collectors) register() {
	eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
		status := statusLabel(e.Status)
		c.httpRequests.WithLabelValues(status).Inc()
		c.httpDuration.WithLabelValues(status).Observe(e.Duration.Seconds())
	})

	eventbus.Subscribe(func(_ context.Context, e events.HTTPUpstreamFinish) {
		outcome := "ok"
		if e.Err != nil {
			outcome = "error"
		}
		c.upstreamTotal.WithLabelValues(e.Method, outcome).Inc()
		c.upstreamSeconds.WithLabelValues(e.Method).Observe(e.Duration.Seconds())
	})

	eventbus.Subscribe(func(_ context.Context, e events.LoaderBatchFinish) {
		c.loaderBatches.WithLabelValues(e.LoaderID).Observe(float64(e.KeyCount))
	})
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Handler serves the Prometheus exposition format for mounting at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
