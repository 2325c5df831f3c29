package observability

import (
	"github.com/smallbiznis/authhub/internal/observability/logger"
	"github.com/smallbiznis/authhub/internal/observability/metrics"
	"github.com/smallbiznis/authhub/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires logging, tracing, and prometheus metrics. The tracer provider
// is invoked eagerly so exporters start with the app rather than on first use.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		newLoggerConfig,
		logger.New,
		newTracingConfig,
		tracing.NewProvider,
		metrics.NewRegistry,
		metrics.NewHTTPMetrics,
		metrics.New,
	),
	fx.Invoke(func(_ *sdktrace.TracerProvider) {}),
)

func newLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

func newTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}
