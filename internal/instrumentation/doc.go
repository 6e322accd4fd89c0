// Package instrumentation wires OpenTelemetry metrics, tracing and audit
// logging into the Intervals.icu MCP server.
//
// # Metrics
//
// Inbound HTTP (sse and streamable-http transports):
//   - http_requests_total, http_request_duration_seconds by method, path, status
//   - mcp_auth_total by result (success, missing, invalid)
//
// Intervals.icu API:
//   - intervals_api_requests_total, intervals_api_request_duration_seconds
//     by resource, method, status
//
// MCP tools:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds by tool and status
//
// Paths are normalized with NormalizePath so unknown routes collapse into a
// single "other" label.
//
// # Tracing
//
// Tool calls run inside a "tool.<name>" server span, and each Intervals.icu
// request inside an "intervals.<resource>.<METHOD>" client span.
//
// # Configuration
//
// LoadConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER,
// TRACING_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_TRACES_SAMPLER_ARG,
// OTEL_SERVICE_NAME, METRICS_DETAILED_LABELS and the AUDIT_LOGGING_* variables.
//
//	config, err := instrumentation.LoadConfig()
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, config)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocationWithAthlete(ctx, "get_events", instrumentation.StatusSuccess, athleteID, time.Since(start))
package instrumentation
