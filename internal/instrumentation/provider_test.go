package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{ServiceName: "test-service", Enabled: false})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	assert.NotNil(t, provider.Metrics())
	assert.False(t, provider.ServesPrometheus())
	assert.NotNil(t, provider.Tracer("test"))
	assert.NoError(t, provider.Shutdown(context.Background()))

	// The no-op recorder accepts calls.
	provider.Metrics().RecordToolInvocationWithAthlete(context.Background(), "get_events", StatusSuccess, "", time.Second)
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name           string
		metrics        string
		tracing        string
		wantPrometheus bool
		wantErr        string
	}{
		{name: "prometheus without tracing", metrics: ExporterPrometheus, tracing: ExporterNone, wantPrometheus: true},
		{name: "stdout", metrics: ExporterStdout, tracing: ExporterStdout},
		{name: "unknown metrics exporter", metrics: "invalid", tracing: ExporterNone, wantErr: "unsupported metrics exporter"},
		{name: "unknown tracing exporter", metrics: ExporterStdout, tracing: "invalid", wantErr: "unsupported tracing exporter"},
		{name: "otlp tracing without endpoint", metrics: ExporterStdout, tracing: ExporterOTLP, wantErr: "OTLP endpoint is required"},
		{name: "otlp metrics without endpoint", metrics: ExporterOTLP, tracing: ExporterNone, wantErr: "OTLP endpoint is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, Config{
				ServiceName:       "test-service",
				ServiceVersion:    "1.0.0",
				Enabled:           true,
				MetricsExporter:   tt.metrics,
				TracingExporter:   tt.tracing,
				TraceSamplingRate: 1,
			})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { _ = provider.Shutdown(ctx) }()

			assert.True(t, provider.Enabled())
			assert.NotNil(t, provider.Metrics())
			assert.NotNil(t, provider.Tracer("test"))
			assert.Equal(t, tt.wantPrometheus, provider.ServesPrometheus())
		})
	}
}

func TestResourceAttributes(t *testing.T) {
	attrs := resourceAttributes(Config{
		ServiceName:       "intervals-mcp",
		ServiceVersion:    "1.2.3",
		ServiceInstanceID: "pod-1",
		K8sNamespace:      "fitness",
		K8sPodName:        "pod-1",
	})

	values := map[string]string{}
	for _, kv := range attrs {
		values[string(kv.Key)] = kv.Value.AsString()
	}

	assert.Equal(t, "intervals-mcp", values["service.name"])
	assert.Equal(t, "1.2.3", values["service.version"])
	assert.Equal(t, "pod-1", values["service.instance.id"])
	assert.Equal(t, "fitness", values["k8s.namespace.name"])
	assert.Equal(t, "pod-1", values["k8s.pod.name"])
}
