// Package tracing installs the process TracerProvider and traces inbound
// HTTP requests. Spans around DAO calls come from pkg/tracing.
package tracing

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"

	"github.com/onap/aai-gizmo-sub001/internal/config"
	"github.com/onap/aai-gizmo-sub001/internal/version"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

var Module = fx.Module("tracing",
	fx.Provide(NewTracerProvider),
	fx.Invoke(RegisterTracingLifecycle),
	fx.Invoke(RegisterEchoMiddleware),
)

type providerOut struct {
	fx.Out

	// nil while tracing is disabled
	SDKProvider *sdktrace.TracerProvider `name:"otelSDKProvider" optional:"true"`
}

// NewTracerProvider registers the global TracerProvider: an OTLP/HTTP
// exporter when OTEL_EXPORTER_OTLP_ENDPOINT is set, a no-op otherwise.
func NewTracerProvider(oc config.OtelConfig, log *slog.Logger) (providerOut, error) {
	log = log.With(logger.Scope("tracing"))
	if !oc.Enabled() {
		log.Info("tracing disabled")
		otel.SetTracerProvider(noop.NewTracerProvider())
		return providerOut{}, nil
	}

	exp, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpointURL(oc.ExporterEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return providerOut{}, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(newResource(oc, log)),
		sdktrace.WithSampler(newSampler(oc.SamplingRate)),
	)
	otel.SetTracerProvider(tp)

	log.Info("tracing enabled",
		slog.String("endpoint", oc.ExporterEndpoint),
		slog.String("service", oc.ServiceName),
		slog.Float64("sampling_rate", oc.SamplingRate),
	)
	return providerOut{SDKProvider: tp}, nil
}

func newResource(oc config.OtelConfig, log *slog.Logger) *resource.Resource {
	res, err := resource.New(context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(oc.ServiceName),
			semconv.ServiceVersion(version.Version),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
	)
	if err != nil {
		log.Warn("resource detection failed", logger.Error(err))
		return resource.Empty()
	}
	return res
}

// newSampler samples everything at rate >= 1 and nothing at rate <= 0.
func newSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

type providerIn struct {
	fx.In

	SDKProvider *sdktrace.TracerProvider `name:"otelSDKProvider" optional:"true"`
}

// RegisterTracingLifecycle flushes and stops the exporter on app stop.
func RegisterTracingLifecycle(lc fx.Lifecycle, p providerIn, log *slog.Logger) {
	if p.SDKProvider == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down tracer provider", logger.Scope("tracing"))
			return p.SDKProvider.Shutdown(ctx)
		},
	})
}

// untraced lists probe and scrape paths kept out of traces.
var untraced = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/ready":   true,
	"/metrics": true,
}

// RegisterEchoMiddleware traces every inventory request.
func RegisterEchoMiddleware(e *echo.Echo, oc config.OtelConfig) {
	if !oc.Enabled() {
		return
	}
	e.Use(otelecho.Middleware(
		oc.ServiceName,
		otelecho.WithSkipper(func(c echo.Context) bool {
			return untraced[c.Request().URL.Path]
		}),
	))
}
