package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/authhub/internal/config"
)

// Config holds observability settings. Values come from the environment with
// the application config supplying fallbacks.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	service := strings.TrimSpace(cfg.AppName)
	if service == "" {
		service = "authhub"
	}

	return Config{
		ServiceName:          service,
		Environment:          envString("DEPLOYMENT_ENV", cfg.Environment),
		Version:              envString("SERVICE_VERSION", cfg.AppVersion),
		LogLevel:             strings.ToLower(envString("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(envString("LOG_FORMAT", "json")),
		OtelEnabled:          envBool("OTEL_ENABLED", true),
		OtelExporterEndpoint: envString("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelSamplingRatio:    envFloat("OTEL_SAMPLING_RATIO", 0.1),
	}
}

// Debug reports whether verbose diagnostics belong in responses and logs.
// True for debug-level logging or a non-production environment.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(fallback)
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
