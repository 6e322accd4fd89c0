package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/intervals-mcp/internal/config"
	"github.com/teemow/intervals-mcp/internal/instrumentation"
	"github.com/teemow/intervals-mcp/internal/logging"
	"github.com/teemow/intervals-mcp/internal/server"
	"github.com/teemow/intervals-mcp/internal/tools/activity_tools"
	"github.com/teemow/intervals-mcp/internal/tools/event_tools"
	"github.com/teemow/intervals-mcp/internal/tools/wellness_tools"
)

// errMissingAthleteID is returned when ATHLETE_ID is not configured.
var errMissingAthleteID = errors.New("ATHLETE_ID is required; set it in the environment or in .env")

const serverInstructions = `Tools for the Intervals.icu training platform.
Dates use the YYYY-MM-DD format. athlete_id and api_key default to the server configuration.
Always ask the user for confirmation before creating, updating or deleting events.`

// serveOptions holds the serve flags. Flags override the environment only
// when they are set explicitly.
type serveOptions struct {
	transport        string
	host             string
	port             int
	debug            bool
	enableWriteTools bool
	yolo             bool
	metricsEnabled   bool
	metricsAddr      string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server using the specified transport:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events on /sse and /message
  - streamable-http: Streamable HTTP on /mcp ("http" is accepted as an alias)

MCP_SERVER_API_KEY must be set for every transport. Network clients send it as
"Authorization: Bearer <key>". Health endpoints (/healthz, /readyz,
/healthz/detailed) are served without authentication.

The server is read-only by default. Use --enable-write-tools to register the
tools that create, update and delete calendar events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyServeFlags(cmd, cfg, &opts)
			if err := validateServeConfig(cfg); err != nil {
				return err
			}
			return runServe(cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", config.TransportStdio, "Transport type: stdio, sse or streamable-http. Can also use MCP_TRANSPORT env var.")
	cmd.Flags().StringVar(&opts.host, "host", "127.0.0.1", "Listen host for network transports. Can also use MCP_HOST env var.")
	cmd.Flags().IntVar(&opts.port, "port", 8000, "Listen port for network transports. Can also use MCP_PORT env var.")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.enableWriteTools, "enable-write-tools", false, "Register tools that create, update and delete events. Can also use MCP_ENABLE_WRITE_TOOLS env var.")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Alias for --enable-write-tools")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyServeFlags merges explicitly set flags into cfg and resolves the
// metrics settings from the environment when their flags are unset.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, opts *serveOptions) {
	flags := cmd.Flags()

	if flags.Changed("transport") {
		cfg.Transport = config.NormalizeTransport(opts.transport)
	}
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Port = opts.port
	}
	if opts.enableWriteTools || opts.yolo {
		cfg.EnableWriteTools = true
	}

	if !flags.Changed("metrics-enabled") {
		if v, err := strconv.ParseBool(os.Getenv("METRICS_ENABLED")); err == nil {
			opts.metricsEnabled = v
		}
	}
	if !flags.Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			opts.metricsAddr = addr
		}
	}
}

// validateServeConfig fails fast on configuration the server cannot run with.
func validateServeConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.AthleteID == "" {
		return errMissingAthleteID
	}
	if cfg.ServerAPIKey == "" {
		return server.ErrMissingServerAPIKey
	}
	return nil
}

// newLogger logs to w, which must not be stdout under the stdio transport.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return logging.WithService(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), "intervals-mcp")
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("intervals-mcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions(serverInstructions),
	)
}

func runServe(cfg *config.Config, opts serveOptions) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(os.Stderr, opts.debug)
	slog.SetDefault(logger)

	instrConfig, err := instrumentation.LoadConfig()
	if err != nil {
		return err
	}
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation config: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	scOpts := []server.Option{server.WithLogger(logger)}
	if provider.Enabled() {
		scOpts = append(scOpts,
			server.WithMetrics(provider.Metrics()),
			server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
		)
	}

	serverContext, err := server.NewServerContext(shutdownCtx, cfg, scOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	if !serverContext.Client().HasDefaultAPIKey() {
		logger.Warn("API_KEY is not set, every tool call must pass api_key")
	}

	if cfg.Transport != config.TransportStdio && opts.metricsEnabled && provider.ServesPrometheus() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:     opts.metricsAddr,
			Provider: provider,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	mcpSrv := newMCPServer()
	readOnly := !cfg.EnableWriteTools

	if readOnly {
		logger.Info("starting server in read-only mode, use --enable-write-tools to enable event changes")
	} else {
		logger.Warn("starting server with write tools enabled")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	switch cfg.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv, logger)
	case config.TransportSSE, config.TransportStreamableHTTP:
		return runHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", cfg.Transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		errLogger := slog.NewLogLogger(logger.Handler(), slog.LevelError)
		if err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithErrorLogger(errLogger)); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers every tool group. Write tools are skipped when
// readOnly is set.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Activity",
			register: func() error {
				return activity_tools.RegisterActivityTools(mcpSrv, sc)
			},
		},
		{
			name: "Event",
			register: func() error {
				return event_tools.RegisterEventTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Wellness",
			register: func() error {
				return wellness_tools.RegisterWellnessTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg *config.Config, logger *slog.Logger) error {
	health := server.NewHealthChecker(sc, version)
	httpServer, err := server.NewHTTPServer(mcpSrv, sc, cfg.Transport, cfg.ServerAPIKey, health)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
