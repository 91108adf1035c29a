// Package observability provides Prometheus metrics and OpenTelemetry
// tracing, adapted from the teacher's internal/observability package
// (MetricsCollector/InitTracer) to this system's domain: per-stage pipeline
// timing and audit/trend-analysis counters instead of generic HTTP service
// metrics.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector registers and serves the pipeline's Prometheus metrics.
type MetricsCollector struct {
	registry prometheus.Registerer

	RequestDuration    *prometheus.HistogramVec
	RequestCount       *prometheus.CounterVec
	PipelineStageSec   *prometheus.HistogramVec
	AuditRunsTotal     *prometheus.CounterVec
	TrendClustersGauge *prometheus.GaugeVec
	LLMCallsTotal      *prometheus.CounterVec
}

// NewMetricsCollector constructs a MetricsCollector registered against reg
// (or the default global registerer if nil).
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	mc := &MetricsCollector{
		registry: reg,
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "auditengine_request_duration_seconds",
				Help: "HTTP request duration in seconds",
			},
			[]string{"method", "endpoint"},
		),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auditengine_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		PipelineStageSec: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "auditengine_pipeline_stage_duration_seconds",
				Help: "Duration of each trend-pipeline or audit-orchestrator stage",
			},
			[]string{"pipeline", "stage"},
		),
		AuditRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auditengine_audit_runs_total",
				Help: "Total audit orchestrator executions by terminal status",
			},
			[]string{"status"},
		),
		TrendClustersGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "auditengine_trend_clusters",
				Help: "Number of topic clusters produced by the last trend pipeline run per domain",
			},
			[]string{"domain"},
		),
		LLMCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auditengine_llm_calls_total",
				Help: "LLM enrichment calls by model and outcome",
			},
			[]string{"model", "outcome"},
		),
	}
	mc.registry.MustRegister(
		mc.RequestDuration, mc.RequestCount, mc.PipelineStageSec,
		mc.AuditRunsTotal, mc.TrendClustersGauge, mc.LLMCallsTotal,
	)
	return mc
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records RequestDuration/RequestCount for every HTTP request.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()
		endpoint := r.URL.Path
		mc.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(duration)
		mc.RequestCount.WithLabelValues(r.Method, endpoint, fmt.Sprintf("%d", wrapped.statusCode)).Inc()
	})
}

// ObserveStage records how long a named pipeline stage took.
func (mc *MetricsCollector) ObserveStage(pipeline, stage string, d time.Duration) {
	mc.PipelineStageSec.WithLabelValues(pipeline, stage).Observe(d.Seconds())
}

// Handler returns an HTTP handler exposing metrics in the Prometheus
// exposition format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}
