package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "reggie"

// Tracer resolves through the global provider on every call, so spans
// started before InitTracing are no-ops and spans after it are exported.
var Tracer trace.Tracer = otel.Tracer(tracerName)

type TracingConfig struct {
	// Exporter is "none" or "otlp".
	Exporter       string
	Endpoint       string
	Insecure       bool
	ServiceVersion string
}

// InitTracing installs a global TracerProvider. The returned shutdown flushes
// pending spans and must be called before exit.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Exporter {
	case "", "none":
		return noop, nil
	case "otlp":
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", tracerName),
		attribute.String("service.version", cfg.ServiceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
