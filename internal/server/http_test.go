package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/intervals-mcp/internal/config"
	"github.com/teemow/intervals-mcp/internal/instrumentation"
)

const testServerKey = "server-token"

func newTestHTTPServer(t *testing.T, transport string) (*HTTPServer, *ServerContext) {
	t.Helper()
	sc := newTestServerContext(t)
	mcpServer := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))

	s, err := NewHTTPServer(mcpServer, sc, transport, testServerKey, NewHealthChecker(sc, "test"))
	require.NoError(t, err)
	return s, sc
}

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`

func postMCP(handler http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(initializeRequest))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestNewHTTPServer_Validation(t *testing.T) {
	sc := newTestServerContext(t)
	mcpServer := mcpserver.NewMCPServer("test", "1.0.0")

	_, err := NewHTTPServer(mcpServer, sc, config.TransportStreamableHTTP, "", nil)
	assert.ErrorIs(t, err, ErrMissingServerAPIKey)

	_, err = NewHTTPServer(mcpServer, sc, config.TransportStdio, "key", nil)
	assert.ErrorContains(t, err, "unsupported server type")
}

func TestHTTPServer_RejectsMissingOrInvalidToken(t *testing.T) {
	s, _ := newTestHTTPServer(t, config.TransportStreamableHTTP)
	handler := s.Handler()

	for _, auth := range []string{"", "Bearer wrong", "Basic " + testServerKey, "Bearer"} {
		rec := postMCP(handler, auth)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "auth %q", auth)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	}
}

func TestHTTPServer_AcceptsValidToken(t *testing.T) {
	s, _ := newTestHTTPServer(t, config.TransportStreamableHTTP)

	rec := postMCP(s.Handler(), "Bearer "+testServerKey)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"protocolVersion"`)
}

func TestHTTPServer_SSERequiresToken(t *testing.T) {
	s, _ := newTestHTTPServer(t, config.TransportSSE)
	handler := s.Handler()

	for _, path := range []string{"/sse", "/message"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPServer_HealthWithoutToken(t *testing.T) {
	s, _ := newTestHTTPServer(t, config.TransportStreamableHTTP)
	handler := s.Handler()

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestHTTPServer_ShutdownMarksNotReady(t *testing.T) {
	s, _ := newTestHTTPServer(t, config.TransportStreamableHTTP)

	require.NoError(t, s.Shutdown(context.Background()))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHTTPServer_RecordsMetrics(t *testing.T) {
	s, sc := newTestHTTPServer(t, config.TransportStreamableHTTP)

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := instrumentation.NewMetrics(meter, false)
	require.NoError(t, err)
	sc.SetMetrics(metrics)

	handler := s.Handler()
	postMCP(handler, "")
	postMCP(handler, "Bearer "+testServerKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["http_requests_total"])
	assert.True(t, names["http_request_duration_seconds"])
	assert.True(t, names["mcp_auth_total"])
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, "header %q", tt.header)
		assert.Equal(t, tt.token, token, "header %q", tt.header)
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)
	assert.Equal(t, http.StatusOK, rw.statusCode)

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusCreated, rw.statusCode)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Same(t, rec, rw.Unwrap())
}

func TestInstrumentationMiddleware_NoMetrics(t *testing.T) {
	s := &HTTPServer{}
	called := false
	handler := s.instrumentationMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.True(t, called)
}
