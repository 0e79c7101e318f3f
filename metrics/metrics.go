// Package metrics exposes Prometheus instrumentation for the assistant.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultLLMDurationBuckets covers a request that makes up to two model calls
var DefaultLLMDurationBuckets = []float64{.5, 1, 2, 5, 10, 30, 60, 120}

// Assistant holds the assistant's metrics. A nil *Assistant is valid and
// records nothing.
type Assistant struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	toolInvocations *prometheus.CounterVec
	modelCalls      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewAssistant creates and registers the assistant metrics on a fresh registry
func NewAssistant() *Assistant {
	reg := prometheus.NewRegistry()
	m := &Assistant{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Assistant requests by mode and final status.",
		}, []string{"mode", "status"}),
		toolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_tool_invocations_total",
			Help: "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_model_calls_total",
			Help: "Model calls by phase and outcome.",
		}, []string{"phase", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assistant_request_duration_seconds",
			Help:    "End-to-end assistant request latency.",
			Buckets: DefaultLLMDurationBuckets,
		}, []string{"mode"}),
	}
	reg.MustRegister(
		m.requests,
		m.toolInvocations,
		m.modelCalls,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Assistant) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Assistant) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Assistant) ObserveRequest(mode, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(mode, status).Inc()
	m.requestDuration.WithLabelValues(mode).Observe(seconds)
}

func (m *Assistant) ObserveTool(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(tool, outcome).Inc()
}

func (m *Assistant) ObserveModelCall(phase, outcome string) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(phase, outcome).Inc()
}
