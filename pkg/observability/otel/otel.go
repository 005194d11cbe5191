// Package otel sets up OpenTelemetry tracing and request spans.
package otel

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config configures tracing
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Exporter is "stdout" or "zipkin"
	Exporter string
	// Endpoint is the zipkin collector URL
	Endpoint string
	// SampleRate in [0, 1]; 1 samples everything
	SampleRate float64
	// Output receives stdout exporter spans (default os.Stdout)
	Output io.Writer
}

// Provider owns the SDK tracer provider
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// NewProvider builds a tracer provider from cfg and installs it, together
// with the W3C trace-context propagator, as the global provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}
	return newProvider(cfg, sdktrace.WithBatcher(exporter)), nil
}

// NewProviderWithProcessor builds a provider that hands spans to sp, used by
// tests with tracetest.SpanRecorder
func NewProviderWithProcessor(cfg Config, sp sdktrace.SpanProcessor) *Provider {
	return newProvider(cfg, sdktrace.WithSpanProcessor(sp))
}

func newProvider(cfg Config, exportOpt sdktrace.TracerProviderOption) *Provider {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "todolist"
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", cfg.ServiceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.Environment))
	}

	tp := sdktrace.NewTracerProvider(
		exportOpt,
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{tp: tp, tracer: tp.Tracer(cfg.ServiceName)}
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "", "stdout":
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(out))
	case "zipkin":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("zipkin exporter requires an endpoint")
		}
		return zipkin.New(cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
}

// Tracer returns the service tracer
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans and stops the provider
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}
