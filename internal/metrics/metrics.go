// Package metrics exposes Prometheus collectors for HTTP traffic, AI calls
// and domain operations.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ziadkadry99/rfqpilot/internal/llm"
)

const namespace = "rfqpilot"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	aiCalls      *prometheus.CounterVec
	aiDuration   *prometheus.HistogramVec
	aiTokens     *prometheus.CounterVec
	aiCost       *prometheus.CounterVec
	operations   *prometheus.CounterVec
	opDuration   *prometheus.HistogramVec
}

// New creates the collectors, including Go runtime and process metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		aiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "AI provider calls by provider and result.",
		}, []string{"provider", "result"}),
		aiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "AI provider call latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"provider"}),
		aiTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_tokens_total",
			Help:      "Tokens consumed by direction.",
		}, []string{"provider", "direction"}),
		aiCost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_cost_usd_total",
			Help:      "Estimated AI spend in US dollars.",
		}, []string{"provider"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Domain operations by name and result.",
		}, []string{"operation", "result"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Domain operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.aiCalls, m.aiDuration, m.aiTokens, m.aiCost,
		m.operations, m.opDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency. Routes are labelled by
// their chi pattern so ids in paths do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Observe records the outcome of a named domain operation. A nil receiver
// is a no-op.
func (m *Metrics) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result(success)).Inc()
	m.opDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// InstrumentProvider wraps p so every completion is counted, timed and
// costed.
func (m *Metrics) InstrumentProvider(p llm.Provider) llm.Provider {
	if m == nil || p == nil {
		return p
	}
	return &instrumentedProvider{Provider: p, m: m}
}

type instrumentedProvider struct {
	llm.Provider
	m *Metrics
}

func (p *instrumentedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	name := p.Provider.Name()
	start := time.Now()
	resp, err := p.Provider.Complete(ctx, req)
	p.m.aiDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	p.m.aiCalls.WithLabelValues(name, result(err == nil)).Inc()
	if err != nil {
		return nil, err
	}
	p.m.aiTokens.WithLabelValues(name, "input").Add(float64(resp.InputTokens))
	p.m.aiTokens.WithLabelValues(name, "output").Add(float64(resp.OutputTokens))
	p.m.aiCost.WithLabelValues(name).Add(llm.ResponseCost(resp, req.Model))
	return resp, nil
}
