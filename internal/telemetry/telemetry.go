// Package telemetry wires structured logging and OpenTelemetry providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nhle/taskflow/internal/model"
)

// ServiceName identifies this client in exported telemetry.
const ServiceName = "taskflow"

// Providers bundles the logger and metrics handed to the rest of the app.
type Providers struct {
	Logger  *slog.Logger
	Metrics *Metrics

	shutdown []func(context.Context) error
}

// Shutdown flushes exporters and closes the log file.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdown) - 1; i >= 0; i-- {
		if err := p.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// abort releases whatever Setup had already opened and returns err.
func (p *Providers) abort(ctx context.Context, err error) (*Providers, error) {
	if serr := p.Shutdown(ctx); serr != nil {
		err = errors.Join(err, serr)
	}
	return nil, err
}

// Setup builds the logger and, when an OTLP endpoint is configured, the
// tracer, meter and logger providers. Without an endpoint the global
// providers stay no-op and logs go to the configured file.
func Setup(ctx context.Context, cfg *model.AppConfig) (*Providers, error) {
	fileLogger, closeFile, err := NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	p := &Providers{
		Logger:   fileLogger,
		shutdown: []func(context.Context) error{func(context.Context) error { return closeFile() }},
	}

	endpoint := cfg.Telemetry.OTLPEndpoint
	if endpoint == "" {
		metrics, err := NewMetrics(otel.Meter(ServiceName), nil)
		if err != nil {
			return p.abort(ctx, err)
		}
		p.Metrics = metrics
		return p, nil
	}

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return p.abort(ctx, fmt.Errorf("failed to create gRPC connection: %w", err))
	}
	p.shutdown = append(p.shutdown, func(context.Context) error { return conn.Close() })

	env := cfg.Telemetry.Environment
	tp, err := InitTracerProvider(ctx, conn, ServiceName, env)
	if err != nil {
		return p.abort(ctx, err)
	}
	p.shutdown = append(p.shutdown, tp.Shutdown)

	mp, err := InitMeterProvider(ctx, conn, ServiceName, env)
	if err != nil {
		return p.abort(ctx, err)
	}
	p.shutdown = append(p.shutdown, mp.Shutdown)

	lp, logger, err := InitLoggerProvider(ctx, conn, ServiceName, env)
	if err != nil {
		return p.abort(ctx, err)
	}
	p.shutdown = append(p.shutdown, lp.Shutdown)
	p.Logger = logger

	metrics, err := NewMetrics(otel.Meter(ServiceName), nil)
	if err != nil {
		return p.abort(ctx, err)
	}
	p.Metrics = metrics
	return p, nil
}

func newResource(serviceName, environment string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
