// Package metrics owns the prometheus registry and HTTP-level request
// metrics. Subsystem metrics (quota, routing) register themselves against
// the same registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codechat"

// Registry bundles the prometheus registry with the HTTP request metrics.
type Registry struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	chatRequestsTotal *prometheus.CounterVec
	chatTokensTotal   *prometheus.CounterVec
}

// NewRegistry creates a registry with Go runtime and process collectors plus
// the request metrics pre-registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by method, path, and status code.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		chatRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "requests_total",
				Help:      "Total chat requests by provider, model, and outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		chatTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "tokens_total",
				Help:      "Total tokens processed by provider, model, and direction.",
			},
			[]string{"provider", "model", "type"},
		),
	}

	reg.MustRegister(
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.chatRequestsTotal,
		r.chatTokensTotal,
	)

	return r
}

// Prometheus exposes the underlying registry so subsystem metrics can
// register against it.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler returns the /metrics HTTP handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// RecordHTTPRequest records one served HTTP request.
func (r *Registry) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordChat records the outcome of one provider chat call.
func (r *Registry) RecordChat(provider, model, status string, promptTokens, completionTokens int) {
	r.chatRequestsTotal.WithLabelValues(provider, model, status).Inc()
	if promptTokens > 0 {
		r.chatTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		r.chatTokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}
