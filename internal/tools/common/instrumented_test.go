package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/intervals-mcp/internal/config"
	"github.com/teemow/intervals-mcp/internal/instrumentation"
	"github.com/teemow/intervals-mcp/internal/server"
)

func newServerContext(t *testing.T, athleteID string) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), &config.Config{AthleteID: athleteID, APIKey: "key"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func withAudit(t *testing.T, sc *server.ServerContext) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sc.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrumentation.AuditLoggingConfig{
		Enabled:          true,
		IncludeAthleteID: true,
	}))

	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	sc.SetMetrics(metrics)
	return &buf
}

func requestWith(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandlerWithResource_NoInstrumentation(t *testing.T) {
	sc := newServerContext(t, "i1")

	called := false
	wrapped := InstrumentedToolHandlerWithResource("get_events", "", "", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("Events:"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandlerWithResource_Success(t *testing.T) {
	sc := newServerContext(t, "i1")
	buf := withAudit(t, sc)

	wrapped := InstrumentedToolHandlerWithResource("get_events", instrumentation.ResourceEvents, instrumentation.OperationList, sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("Events:"), nil
		})

	_, err := wrapped(context.Background(), requestWith(map[string]any{"athlete_id": "i99"}))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=tool_executed tool=get_events")
	assert.Contains(t, out, "athlete_id=i99")
	assert.Contains(t, out, "resource=events")
	assert.Contains(t, out, "operation=list")
}

func TestInstrumentedToolHandlerWithResource_DefaultAthlete(t *testing.T) {
	sc := newServerContext(t, "i1")
	buf := withAudit(t, sc)

	wrapped := InstrumentedToolHandlerWithResource("get_wellness_data", "", "", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("Wellness Data:"), nil
	})

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "athlete_id=i1")
}

func TestInstrumentedToolHandlerWithResource_ErrorResult(t *testing.T) {
	sc := newServerContext(t, "i1")
	buf := withAudit(t, sc)

	wrapped := InstrumentedToolHandlerWithResource("get_event_by_id", "", "", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("Error fetching event details: Not Found"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, buf.String(), "level=WARN msg=tool_failed tool=get_event_by_id")
}

func TestInstrumentedToolHandlerWithResource_GoError(t *testing.T) {
	sc := newServerContext(t, "i1")
	buf := withAudit(t, sc)

	expectedErr := errors.New("boom")
	wrapped := InstrumentedToolHandlerWithResource("delete_event", "", "", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	})

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	assert.ErrorIs(t, err, expectedErr)
	assert.Contains(t, buf.String(), "msg=tool_failed")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestInstrumentedToolHandlerWithResource_LogsGoErrorWithTool(t *testing.T) {
	var buf bytes.Buffer
	sc, err := server.NewServerContext(context.Background(),
		&config.Config{AthleteID: "i1", APIKey: "key"},
		server.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	wrapped := InstrumentedToolHandlerWithResource("delete_event", instrumentation.ResourceEvents, instrumentation.OperationDelete, sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, errors.New("boom")
		})

	_, err = wrapped(context.Background(), mcp.CallToolRequest{})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `level=ERROR msg="tool handler failed" tool=delete_event error=boom`)
}

func TestResultText(t *testing.T) {
	assert.Equal(t, "hello", resultText(mcp.NewToolResultText("hello")))
	assert.Empty(t, resultText(&mcp.CallToolResult{}))
}
