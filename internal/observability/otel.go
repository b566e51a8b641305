// Package observability installs the process-wide OpenTelemetry tracer
// provider. Spans come from otelgin on every request, from the gorm tracing
// plugin on queries, and from the services around composition and analytics.
package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-dealer-assistant/internal/config"
)

const defaultServiceName = "dealer-assistant"

// Overridden in tests.
var (
	newSpanExporter = func(ctx context.Context, cfg config.OTELConfig) (sdktrace.SpanExporter, error) {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
		}
		return otlptracegrpc.New(ctx, opts...)
	}

	newResource = func(ctx context.Context, attrs ...attribute.KeyValue) (*resource.Resource, error) {
		return resource.New(ctx, resource.WithAttributes(attrs...))
	}
)

// SetupOTel installs a batching tracer provider exporting over OTLP/gRPC and
// the W3C trace-context and baggage propagators. The returned function
// flushes pending spans and stops the provider. When tracing is disabled the
// globals stay untouched and shutdown is a no-op.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}
	res, err := newResource(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	exp, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("otel exporter %s: %w", cfg.Endpoint, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	log.Info().
		Str("service", name).
		Str("endpoint", cfg.Endpoint).
		Float64("sample_ratio", cfg.SampleRatio).
		Msg("tracing enabled")

	return func(ctx context.Context) error {
		return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
	}, nil
}

// sampler honours an upstream sampling decision and otherwise samples the
// given fraction of new traces.
func sampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}
