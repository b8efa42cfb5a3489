// internal/common/observability/metrics.go
package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Options configures the otel providers.
type Options struct {
	ServiceName    string
	Registerer     promclient.Registerer
	TracingEnabled bool
	JaegerEndpoint string
	SampleRatio    float64
}

// Observability owns the otel meter and tracer providers.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	cycleCounter   otelmetric.Int64Counter
	cycleDuration  otelmetric.Float64Histogram
}

func New(opts Options) (*Observability, error) {
	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	var exporterOpts []prometheus.Option
	if opts.Registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(opts.Registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if opts.TracingEnabled {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.JaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("create jaeger exporter: %w", err)
		}
		ratio := opts.SampleRatio
		if ratio <= 0 {
			ratio = 1
		}
		tpOpts = append(tpOpts,
			sdktrace.WithBatcher(exp),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		)
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	meter := mp.Meter(opts.ServiceName)
	cycleCounter, err := meter.Int64Counter(
		"reconcile.cycles",
		otelmetric.WithDescription("Reconciliation cycles by result"),
	)
	if err != nil {
		return nil, err
	}
	cycleDuration, err := meter.Float64Histogram(
		"reconcile.duration",
		otelmetric.WithDescription("Reconciliation cycle duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:  mp,
		tracerProvider: tp,
		tracer:         tp.Tracer(opts.ServiceName),
		cycleCounter:   cycleCounter,
		cycleDuration:  cycleDuration,
	}, nil
}

// StartSpan starts a span on the service tracer. A nil receiver yields a no-op span.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordCycle records one reconciliation cycle outcome.
func (o *Observability) RecordCycle(ctx context.Context, duration time.Duration, result string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("result", result))
	o.cycleCounter.Add(ctx, 1, attrs)
	o.cycleDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var firstErr error
	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
