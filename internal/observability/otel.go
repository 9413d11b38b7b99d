package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/SysArcDCMS/dcms-scheduler"

// Metrics holds the scheduler's counters. Without a configured meter
// provider they are no-ops.
type Metrics struct {
	BookingOutcome metric.Int64Counter
	CacheHitCount  metric.Int64Counter
	CacheMissCount metric.Int64Counter
}

// Setup installs the OTLP trace exporter. An empty endpoint leaves the
// global no-op provider in place.
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	return tracerProvider.Shutdown, nil
}

func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	bookingOutcome, err := meter.Int64Counter(
		"scheduler.booking.outcome",
		metric.WithDescription("Booking commits by outcome"),
	)
	if err != nil {
		return nil, err
	}

	cacheHitCount, err := meter.Int64Counter(
		"scheduler.slot_cache.hit",
		metric.WithDescription("Availability queries served from cache"),
	)
	if err != nil {
		return nil, err
	}

	cacheMissCount, err := meter.Int64Counter(
		"scheduler.slot_cache.miss",
		metric.WithDescription("Availability queries computed from the registry"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		BookingOutcome: bookingOutcome,
		CacheHitCount:  cacheHitCount,
		CacheMissCount: cacheMissCount,
	}, nil
}

// MustMetrics is InitMetrics for tests and tools, where the global meter is
// the no-op one and cannot fail.
func MustMetrics() *Metrics {
	m, err := InitMetrics()
	if err != nil {
		panic(err)
	}
	return m
}

func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (m *Metrics) RecordBooking(ctx context.Context, operation, outcome string) {
	m.BookingOutcome.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordCache(ctx context.Context, hit bool) {
	if hit {
		m.CacheHitCount.Add(ctx, 1)
		return
	}
	m.CacheMissCount.Add(ctx, 1)
}
