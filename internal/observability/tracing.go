package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer initializes a tracer provider and sets it as the global
// provider. backendURL may point to a Jaeger or Zipkin collector; an empty
// URL defaults to a local Jaeger collector. Adapted unchanged from the
// teacher's internal/observability/tracing.go.
func InitTracer(serviceName, backendURL string) (*sdktrace.TracerProvider, error) {
	var (
		exp sdktrace.SpanExporter
		err error
	)

	if strings.Contains(strings.ToLower(backendURL), "zipkin") {
		exp, err = zipkin.New(backendURL)
	} else {
		if backendURL == "" {
			backendURL = "http://localhost:14268/api/traces"
		}
		exp, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(backendURL)))
	}
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// StartSpan starts a new span for operation and returns the derived
// context.
func StartSpan(ctx context.Context, tracer trace.Tracer, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, operation)
}

// PipelineTracer names the tracer used across trend-pipeline and
// audit-orchestrator spans.
func PipelineTracer() trace.Tracer {
	return otel.Tracer("auditengine/pipeline")
}
