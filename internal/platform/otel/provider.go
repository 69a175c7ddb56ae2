// Package otel wires OpenTelemetry tracing for forum binaries.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/agoraledger/forum/internal/platform/config"
)

// Config selects the OTLP/HTTP trace exporter. Tracing stays off until
// Endpoint is set.
type Config struct {
	Enabled     bool    `env:"FORUM_OTEL_ENABLED" envDefault:"true"`
	Endpoint    string  `env:"FORUM_OTEL_ENDPOINT"`
	SampleRatio float64 `env:"FORUM_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (c Config) active() bool {
	return c.Enabled && c.Endpoint != ""
}

func (c Config) sampler() sdktrace.Sampler {
	if c.SampleRatio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(max(c.SampleRatio, 0)))
}

// Setup reads Config from the environment and installs a global tracer
// provider for service. The returned function flushes pending spans; it is a
// no-op when tracing is off.
func Setup(ctx context.Context, service string) (func(context.Context) error, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, fmt.Errorf("otel config: %w", err)
	}
	return Install(ctx, service, cfg)
}

// Install is Setup with an explicit Config.
func Install(ctx context.Context, service string, cfg Config) (func(context.Context) error, error) {
	if !cfg.active() {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(service)))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}
