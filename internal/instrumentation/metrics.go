package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod   = "method"
	attrPath     = "path"
	attrStatus   = "status"
	attrResource = "resource"
	attrResult   = "result"
	attrTool     = "tool"
	attrAthlete  = "athlete"
)

// Metrics records the server's OpenTelemetry metrics. A zero Metrics is a
// valid no-op recorder.
type Metrics struct {
	// Inbound HTTP (network transports only)
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Bearer token checks on the MCP endpoints
	authTotal metric.Int64Counter

	// Outbound Intervals.icu API calls
	intervalsRequestsTotal   metric.Int64Counter
	intervalsRequestDuration metric.Float64Histogram

	// MCP tools
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds the athlete label to tool metrics.
	detailedLabels bool
}

// NewMetrics creates all instruments on the given meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.authTotal, err = meter.Int64Counter(
		"mcp_auth_total",
		metric.WithDescription("Total number of bearer token checks on MCP endpoints"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_auth_total counter: %w", err)
	}

	m.intervalsRequestsTotal, err = meter.Int64Counter(
		"intervals_api_requests_total",
		metric.WithDescription("Total number of Intervals.icu API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create intervals_api_requests_total counter: %w", err)
	}

	m.intervalsRequestDuration, err = meter.Float64Histogram(
		"intervals_api_request_duration_seconds",
		metric.WithDescription("Intervals.icu API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create intervals_api_request_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an inbound HTTP request. The path should already
// be normalized with NormalizePath.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAuth records the outcome of a bearer token check.
// Result should be one of AuthResultSuccess, AuthResultMissing, AuthResultInvalid.
func (m *Metrics) RecordAuth(ctx context.Context, result string) {
	if m == nil || m.authTotal == nil {
		return
	}

	m.authTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordIntervalsRequest records an outbound Intervals.icu API request.
//
// Parameters:
//   - resource: path-derived resource label (activities, events, wellness, ...)
//   - method: HTTP method
//   - status: "success" or "error"
//   - duration: time taken, including the connection-recreation retry
func (m *Metrics) RecordIntervalsRequest(ctx context.Context, resource, method, status string, duration time.Duration) {
	if m == nil || m.intervalsRequestsTotal == nil || m.intervalsRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResource, resource),
		attribute.String(attrMethod, method),
		attribute.String(attrStatus, status),
	}

	m.intervalsRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.intervalsRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocationWithAthlete records an MCP tool invocation. The athlete
// label is only attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocationWithAthlete(ctx context.Context, toolName, status, athleteID string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	if m.detailedLabels && athleteID != "" {
		attrs = append(attrs, attribute.String(attrAthlete, athleteID))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
