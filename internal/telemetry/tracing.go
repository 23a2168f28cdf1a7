package telemetry

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "smart-tasks"

type Options struct {
	// Exporter is none, stdout or otlp.
	Exporter string
	// Endpoint is the OTLP/HTTP collector URL; empty uses the exporter's
	// environment defaults.
	Endpoint string
	// Writer receives stdout spans; nil means os.Stdout.
	Writer io.Writer
}

// Setup installs a global tracer provider and propagator. The returned
// shutdown flushes pending spans; it is a no-op when tracing is off.
func Setup(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var exp sdktrace.SpanExporter
	switch strings.ToLower(strings.TrimSpace(opts.Exporter)) {
	case "", "none":
		return func(context.Context) error { return nil }, nil
	case "stdout":
		var so []stdouttrace.Option
		if opts.Writer != nil {
			so = append(so, stdouttrace.WithWriter(opts.Writer))
		}
		exp, err = stdouttrace.New(so...)
	case "otlp":
		var ho []otlptracehttp.Option
		if opts.Endpoint != "" {
			ho = append(ho, otlptracehttp.WithEndpointURL(opts.Endpoint))
		}
		exp, err = otlptracehttp.New(ctx, ho...)
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", opts.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", opts.Exporter, err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
