package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/intervals-mcp/internal/config"
	"github.com/teemow/intervals-mcp/internal/instrumentation"
	"github.com/teemow/intervals-mcp/internal/logging"
)

const (
	// DefaultReadHeaderTimeout bounds how long a client may take to send headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultIdleTimeout closes idle keep-alive connections.
	DefaultIdleTimeout = 120 * time.Second
)

// ErrMissingServerAPIKey is returned when MCP_SERVER_API_KEY is not set.
var ErrMissingServerAPIKey = errors.New("MCP_SERVER_API_KEY is required; set it in the environment or in .env")

// HTTPServer serves the MCP server over SSE or streamable HTTP. Every MCP
// endpoint requires "Authorization: Bearer <MCP_SERVER_API_KEY>". Health
// endpoints are served without authentication.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	sc         *ServerContext
	health     *HealthChecker
	transport  string
	apiKey     []byte
	httpServer *http.Server
}

// NewHTTPServer creates an HTTP server for the given transport, which must
// be config.TransportSSE or config.TransportStreamableHTTP.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, transport, apiKey string, health *HealthChecker) (*HTTPServer, error) {
	if apiKey == "" {
		return nil, ErrMissingServerAPIKey
	}
	switch transport {
	case config.TransportSSE, config.TransportStreamableHTTP:
	default:
		return nil, fmt.Errorf("unsupported server type: %s", transport)
	}
	if health == nil {
		health = NewHealthChecker(sc, "")
	}

	return &HTTPServer{
		mcpServer: mcpServer,
		sc:        sc,
		health:    health,
		transport: transport,
		apiKey:    []byte(apiKey),
	}, nil
}

// Handler builds the routing tree: health endpoints, then the MCP endpoints
// behind bearer authentication, all wrapped in request metrics.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.health.RegisterHealthEndpoints(mux)

	switch s.transport {
	case config.TransportSSE:
		sseServer := mcpserver.NewSSEServer(s.mcpServer,
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
		)
		mux.Handle("/sse", s.requireBearer(sseServer))
		mux.Handle("/message", s.requireBearer(sseServer))

	case config.TransportStreamableHTTP:
		streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
		)
		mux.Handle("/mcp", s.requireBearer(streamable))
	}

	return s.instrumentationMiddleware(mux)
}

// Start listens on addr and blocks until the server stops.
func (s *HTTPServer) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.logger().Info("starting HTTP server", "addr", addr, "transport", s.transport)
	return s.httpServer.ListenAndServe()
}

// Shutdown marks the server as not ready and gracefully stops it.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *HTTPServer) logger() *slog.Logger {
	if s.sc != nil {
		return s.sc.Logger()
	}
	return slog.Default()
}

func (s *HTTPServer) metrics() *instrumentation.Metrics {
	if s.sc == nil {
		return nil
	}
	return s.sc.Metrics()
}

// requireBearer rejects requests whose bearer token does not match the
// configured key. The comparison runs in constant time.
func (s *HTTPServer) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			s.metrics().RecordAuth(r.Context(), instrumentation.AuthResultMissing)
			s.logger().Warn("rejected request without bearer token", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			writeUnauthorized(w)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), s.apiKey) != 1 {
			s.metrics().RecordAuth(r.Context(), instrumentation.AuthResultInvalid)
			s.logger().Warn("rejected request with invalid bearer token",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"token", logging.SanitizeToken(token))
			writeUnauthorized(w)
			return
		}

		s.metrics().RecordAuth(r.Context(), instrumentation.AuthResultSuccess)
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}

// instrumentationMiddleware records method, normalized path, status and
// duration of every request.
func (s *HTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := s.metrics()
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		m.RecordHTTPRequest(r.Context(), r.Method, instrumentation.NormalizePath(r.URL.Path), rw.statusCode, time.Since(start))
	})
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
