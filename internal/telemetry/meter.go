package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"google.golang.org/grpc"
)

// Metrics holds the instruments recorded by the API client and poller.
type Metrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	UnreadGauge     metric.Int64ObservableGauge
	unreadFunc      func() int64
}

// InitMeterProvider initializes the OpenTelemetry meter provider.
func InitMeterProvider(ctx context.Context, conn *grpc.ClientConn, serviceName, environment string) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	res, err := newResource(serviceName, environment)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(10*time.Second),
		)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp, nil
}

// NewMetrics creates the client instruments on meter. unreadFunc may be nil.
func NewMetrics(meter metric.Meter, unreadFunc func() int64) (*Metrics, error) {
	m := &Metrics{unreadFunc: unreadFunc}

	var err error
	m.RequestCounter, err = meter.Int64Counter(
		"taskflow_api_requests_total",
		metric.WithDescription("Total number of TaskFlow API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	m.RequestDuration, err = meter.Float64Histogram(
		"taskflow_api_request_duration_seconds",
		metric.WithDescription("TaskFlow API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	m.UnreadGauge, err = meter.Int64ObservableGauge(
		"taskflow_unread_notifications",
		metric.WithDescription("Unread notifications for the signed-in user"),
		metric.WithUnit("{notification}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			if m.unreadFunc != nil {
				o.Observe(m.unreadFunc())
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create unread gauge: %w", err)
	}

	return m, nil
}

// SetUnreadFunc installs the callback observed by the unread gauge.
func (m *Metrics) SetUnreadFunc(fn func() int64) {
	if m == nil {
		return
	}
	m.unreadFunc = fn
}

// RecordRequest records one API round trip. A nil receiver is a no-op.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}
