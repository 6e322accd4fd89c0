package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/codes"

	"github.com/teemow/intervals-mcp/internal/instrumentation"
	"github.com/teemow/intervals-mcp/internal/logging"
	"github.com/teemow/intervals-mcp/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandlerWithResource wraps a tool handler with a tool span,
// metrics and audit logging. The audit record is tagged with the
// Intervals.icu resource group and the operation performed on it; both may be
// empty. A result with IsError set counts as a failed invocation.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandlerWithResource("get_events",
//		instrumentation.ResourceEvents, instrumentation.OperationList, sc, handler))
func InstrumentedToolHandlerWithResource(
	toolName string,
	resource string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		athleteID := AthleteFromArgs(request.GetArguments(), sc.DefaultAthleteID())

		spanAttrs := instrumentation.NewSpanAttributeBuilder().
			WithAthlete(athleteID).
			WithResource(resource, "").
			WithReadOnly(!sc.Config().EnableWriteTools).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, spanAttrs...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithAthlete(athleteID)
		if resource != "" {
			invocation.WithResource(resource, operation)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
			logging.WithTool(sc.Logger(), toolName).Error("tool handler failed", logging.Err(err))
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			span.SetStatus(codes.Error, resultText(result))
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocationWithAthlete(ctx, toolName, status, athleteID, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}

// resultText returns the first text content of a tool result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			return tc.Text
		}
	}
	return ""
}
