package instrumentation

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the OpenTelemetry settings. Every field is read from the
// environment by LoadConfig.
type Config struct {
	ServiceName       string `env:"OTEL_SERVICE_NAME" envDefault:"intervals-mcp"`
	ServiceVersion    string
	ServiceInstanceID string `env:"OTEL_SERVICE_INSTANCE_ID"`

	// Kubernetes resource attributes. POD_NAMESPACE and HOSTNAME are used
	// when the K8S_ variables are unset.
	K8sNamespace string `env:"K8S_NAMESPACE"`
	K8sPodName   string `env:"K8S_POD_NAME"`

	// Enabled turns metrics and tracing on or off as a whole.
	Enabled bool `env:"INSTRUMENTATION_ENABLED" envDefault:"true"`

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string `env:"METRICS_EXPORTER" envDefault:"prometheus"`
	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string `env:"TRACING_EXPORTER" envDefault:"none"`

	// OTLPEndpoint is host:port without a scheme, e.g. localhost:4318.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS towards the collector. Local use only.
	OTLPInsecure bool `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`

	TraceSamplingRate  float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"0.1"`
	PrometheusEndpoint string  `env:"PROMETHEUS_ENDPOINT" envDefault:"/metrics"`

	// DetailedLabels adds the athlete ID label to tool metrics.
	// Keep disabled when one server instance serves many athletes.
	DetailedLabels bool `env:"METRICS_DETAILED_LABELS" envDefault:"false"`

	AuditLogging AuditLoggingConfig `envPrefix:"AUDIT_LOGGING_"`
}

// AuditLoggingConfig controls the tool audit log.
type AuditLoggingConfig struct {
	Enabled bool `env:"ENABLED" envDefault:"true"`

	// IncludeAthleteID logs raw athlete IDs instead of a hashed identifier.
	IncludeAthleteID bool `env:"INCLUDE_ATHLETE_ID" envDefault:"false"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `env:"LEVEL" envDefault:"info"`
}

// LoadConfig reads the instrumentation settings from the environment.
// Malformed values such as INSTRUMENTATION_ENABLED=maybe are reported as
// errors rather than silently replaced by defaults.
func LoadConfig() (Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse instrumentation config: %w", err)
	}
	config.ServiceVersion = "unknown"
	if config.K8sNamespace == "" {
		config.K8sNamespace = os.Getenv("POD_NAMESPACE")
	}
	if config.K8sPodName == "" {
		config.K8sPodName = os.Getenv("HOSTNAME")
	}
	return config, nil
}

// Validate checks exporter names, the sampling rate and the OTLP endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}

	return nil
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	// Bearer auth results
	AuthResultSuccess = "success"
	AuthResultMissing = "missing"
	AuthResultInvalid = "invalid"

	// Intervals.icu resource groups used in tool audit records
	ResourceActivities = "activities"
	ResourceEvents     = "events"
	ResourceWellness   = "wellness"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// Metric recording intervals
	DefaultMetricInterval = 10 * time.Second
)
