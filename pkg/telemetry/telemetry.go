// Package telemetry provides OpenTelemetry metrics and tracing for the WEFT
// coordinator, exported in Prometheus format.
package telemetry

import (
	"context"
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Service name for telemetry
	serviceName = "weft-core"

	// Metric names
	metricCompiles         = "weft.compiles.total"
	metricCompileDuration  = "weft.compile.duration"
	metricCompileFailures  = "weft.compiles.failure.total"
	metricTicks            = "weft.ticks.total"
	metricTickDuration     = "weft.tick.duration"
	metricTickFailures     = "weft.ticks.failure.total"
	metricSubgraphDuration = "weft.subgraph.duration"
	metricSubgraphNodes    = "weft.subgraph.nodes"
)

// Provider manages OpenTelemetry setup and provides access to tracers and
// meters for the coordinator.
type Provider struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider trace.TracerProvider
	meter          metric.Meter
	tracer         trace.Tracer

	// Metric instruments
	compiles         metric.Int64Counter
	compileDuration  metric.Float64Histogram
	compileFailures  metric.Int64Counter
	ticks            metric.Int64Counter
	tickDuration     metric.Float64Histogram
	tickFailures     metric.Int64Counter
	subgraphDuration metric.Float64Histogram
	subgraphNodes    metric.Int64Histogram
}

// Config holds telemetry configuration
type Config struct {
	// ServiceName is the name of the service for telemetry
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment (e.g., "production", "development")
	Environment string

	// EnableTracing enables distributed tracing
	EnableTracing bool

	// EnableMetrics enables metrics collection
	EnableMetrics bool

	// Registerer receives the exported metrics. Defaults to the global
	// Prometheus registerer.
	Registerer promclient.Registerer
}

// DefaultConfig returns default telemetry configuration
func DefaultConfig() Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
	}
}

// NewProvider creates a telemetry provider with a Prometheus metrics
// exporter. Metrics land on the default Prometheus registry; serve them with
// promhttp.Handler().
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	provider := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if config.EnableMetrics {
		if err := provider.initMetrics(res, config.Registerer); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	if config.EnableTracing {
		provider.initTracing()
	}

	return provider, nil
}

// initMetrics initializes the metrics provider with Prometheus exporter
func (p *Provider) initMetrics(res *resource.Resource, registerer promclient.Registerer) error {
	opts := []prometheus.Option{}
	if registerer != nil {
		opts = append(opts, prometheus.WithRegisterer(registerer))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter(serviceName)

	if err := p.createMetricInstruments(); err != nil {
		return fmt.Errorf("failed to create metric instruments: %w", err)
	}
	return nil
}

// initTracing initializes the tracing provider
func (p *Provider) initTracing() {
	p.tracerProvider = otel.GetTracerProvider()
	p.tracer = p.tracerProvider.Tracer(serviceName)
}

// createMetricInstruments creates all metric instruments
func (p *Provider) createMetricInstruments() error {
	var err error

	p.compiles, err = p.meter.Int64Counter(
		metricCompiles,
		metric.WithDescription("Total number of program compiles"),
	)
	if err != nil {
		return err
	}

	p.compileDuration, err = p.meter.Float64Histogram(
		metricCompileDuration,
		metric.WithDescription("Program compile duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.compileFailures, err = p.meter.Int64Counter(
		metricCompileFailures,
		metric.WithDescription("Total number of failed compiles"),
	)
	if err != nil {
		return err
	}

	p.ticks, err = p.meter.Int64Counter(
		metricTicks,
		metric.WithDescription("Total number of execution ticks"),
	)
	if err != nil {
		return err
	}

	p.tickDuration, err = p.meter.Float64Histogram(
		metricTickDuration,
		metric.WithDescription("Tick duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.tickFailures, err = p.meter.Int64Counter(
		metricTickFailures,
		metric.WithDescription("Total number of aborted ticks"),
	)
	if err != nil {
		return err
	}

	p.subgraphDuration, err = p.meter.Float64Histogram(
		metricSubgraphDuration,
		metric.WithDescription("Per-context subgraph call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.subgraphNodes, err = p.meter.Int64Histogram(
		metricSubgraphNodes,
		metric.WithDescription("Node count per compiled subgraph"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Tracer returns the provider's tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p.tracer == nil {
		p.initTracing()
	}
	return p.tracer
}

// Shutdown flushes and stops the metric pipeline.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
