package observability

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/logging"
)

type Config struct {
	ServiceInfo   logging.ServiceInfo
	Environment   logging.Environment
	GCPProjectID  string
	SamplingRate  float64
	DefaultModule logging.Module
	LogLevel      slog.Leveler
}

// Resources owns the process-wide logger and OTel providers.
type Resources struct {
	logger         *slog.Logger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

func Init(ctx context.Context, cfg Config) (*Resources, error) {
	level := cfg.LogLevel
	if level == nil {
		level = slog.LevelInfo
	}

	logger := slog.New(logging.NewHandler(os.Stdout, logging.HandlerConfig{
		Service:       cfg.ServiceInfo,
		Environment:   cfg.Environment,
		Level:         level,
		GCPProjectID:  cfg.GCPProjectID,
		DefaultModule: cfg.DefaultModule,
	}))

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceInfo.Name),
			attribute.String("service.version", cfg.ServiceInfo.Version),
			attribute.String("service.instance.id", cfg.ServiceInfo.Revision),
			attribute.String("deployment.environment", string(cfg.Environment)),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := newTraceExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	metricReader, err := newMetricReader(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rate := cfg.SamplingRate
	if rate <= 0 || rate > 1 {
		rate = 1.0
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}
	if traceExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(traceExporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if metricReader != nil {
		mpOpts = append(mpOpts, sdkmetric.WithReader(metricReader))
	}
	mp := sdkmetric.NewMeterProvider(mpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Resources{
		logger:         logger,
		tracerProvider: tp,
		meterProvider:  mp,
	}, nil
}

func (r *Resources) Logger() *slog.Logger {
	return r.logger
}

// Shutdown flushes pending spans and metrics.
func (r *Resources) Shutdown(ctx context.Context) error {
	var errs []error
	if r.tracerProvider != nil {
		if err := r.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.meterProvider != nil {
		if err := r.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
