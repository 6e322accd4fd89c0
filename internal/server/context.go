package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/teemow/intervals-mcp/internal/config"
	"github.com/teemow/intervals-mcp/internal/instrumentation"
	"github.com/teemow/intervals-mcp/internal/intervals"
)

// ServerContext holds the state shared by all MCP tool handlers: the
// resolved configuration, the Intervals.icu client and the instrumentation.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	config      *config.Config
	client      *intervals.Client
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	mu          sync.RWMutex
	shutdown    bool
}

// Option customizes a ServerContext.
type Option func(*ServerContext)

// WithClient injects the Intervals.icu client instead of building one from
// the configuration.
func WithClient(client *intervals.Client) Option {
	return func(sc *ServerContext) { sc.client = client }
}

// WithMetrics sets the metrics recorder used by tool handlers and by the
// Intervals.icu client built from the configuration.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the tool audit logger.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.auditLogger = a }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// NewServerContext creates a server context for cfg. Unless a client is
// injected, an Intervals.icu client is built from cfg; it opens no
// connection until the first request.
func NewServerContext(ctx context.Context, cfg *config.Config, opts ...Option) (*ServerContext, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	if sc.client == nil {
		clientOpts := intervals.Options{
			BaseURL:   cfg.APIBaseURL,
			APIKey:    cfg.APIKey,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.RequestTimeout,
			Logger:    sc.logger,
		}
		if sc.metrics != nil {
			clientOpts.Metrics = sc.metrics
		}
		sc.client = intervals.NewClient(clientOpts)
	}

	return sc, nil
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the resolved configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.config
}

// Client returns the shared Intervals.icu client.
func (sc *ServerContext) Client() *intervals.Client {
	return sc.client
}

// DefaultAthleteID returns the athlete ID from the environment, if any.
func (sc *ServerContext) DefaultAthleteID() string {
	return sc.config.AthleteID
}

// Logger returns the base logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics replaces the metrics recorder used by tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the tool audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger replaces the tool audit logger.
func (sc *ServerContext) SetAuditLogger(a *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = a
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and closes the Intervals.icu client.
// Only the first call has an effect.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return sc.client.Close()
}
