package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/intervals-mcp/internal/config"
	"github.com/teemow/intervals-mcp/internal/server"
)

func baseConfig() *config.Config {
	return &config.Config{
		APIBaseURL:     config.DefaultAPIBaseURL,
		AthleteID:      "i123456",
		APIKey:         "key",
		ServerAPIKey:   "token",
		Transport:      config.TransportStdio,
		Host:           "127.0.0.1",
		Port:           8000,
		RequestTimeout: 30 * time.Second,
	}
}

func TestValidateServeConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:   "stdio with server key",
			mutate: func(*config.Config) {},
		},
		{
			name:    "stdio without server key",
			mutate:  func(c *config.Config) { c.ServerAPIKey = "" },
			wantErr: server.ErrMissingServerAPIKey,
		},
		{
			name:    "missing athlete",
			mutate:  func(c *config.Config) { c.AthleteID = "" },
			wantErr: errMissingAthleteID,
		},
		{
			name:    "malformed athlete",
			mutate:  func(c *config.Config) { c.AthleteID = "athlete-1" },
			wantErr: config.ErrInvalidAthleteID,
		},
		{
			name: "network transport without server key",
			mutate: func(c *config.Config) {
				c.Transport = config.TransportSSE
				c.ServerAPIKey = ""
			},
			wantErr: server.ErrMissingServerAPIKey,
		},
		{
			name: "network transport with server key",
			mutate: func(c *config.Config) {
				c.Transport = config.TransportStreamableHTTP
				c.ServerAPIKey = "token"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)

			err := validateServeConfig(cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestApplyServeFlags_ExplicitFlagsWin(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("METRICS_ADDR", ":9999")

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("transport", "http"))
	require.NoError(t, cmd.Flags().Set("port", "9000"))
	require.NoError(t, cmd.Flags().Set("yolo", "true"))
	require.NoError(t, cmd.Flags().Set("metrics-addr", ":9100"))

	cfg := baseConfig()
	opts := serveOptions{transport: "http", port: 9000, yolo: true, metricsEnabled: true, metricsAddr: ":9100"}
	applyServeFlags(cmd, cfg, &opts)

	assert.Equal(t, config.TransportStreamableHTTP, cfg.Transport)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.True(t, cfg.EnableWriteTools)
	assert.False(t, opts.metricsEnabled)
	assert.Equal(t, ":9100", opts.metricsAddr)
}

func TestApplyServeFlags_UnsetFlagsKeepConfig(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "")
	t.Setenv("METRICS_ADDR", "")

	cmd := newServeCmd()
	cfg := baseConfig()
	cfg.Transport = config.TransportSSE
	cfg.EnableWriteTools = true

	opts := serveOptions{transport: config.TransportStdio, port: 8000, metricsEnabled: true, metricsAddr: server.DefaultMetricsAddr}
	applyServeFlags(cmd, cfg, &opts)

	assert.Equal(t, config.TransportSSE, cfg.Transport)
	assert.True(t, cfg.EnableWriteTools)
	assert.True(t, opts.metricsEnabled)
	assert.Equal(t, server.DefaultMetricsAddr, opts.metricsAddr)
}

func TestRegisterAllTools(t *testing.T) {
	readTools := []string{
		"get_activities",
		"get_activity_details",
		"get_activity_intervals",
		"get_activity_streams",
		"get_events",
		"get_event_by_id",
		"get_wellness_data",
	}

	sc, err := server.NewServerContext(context.Background(), baseConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	readOnly := newMCPServer()
	require.NoError(t, registerAllTools(readOnly, sc, true))
	tools := readOnly.ListTools()
	assert.Len(t, tools, len(readTools))
	for _, name := range readTools {
		assert.Contains(t, tools, name)
	}

	writable := newMCPServer()
	require.NoError(t, registerAllTools(writable, sc, false))
	tools = writable.ListTools()
	assert.Len(t, tools, len(readTools)+len(writeTools))
	for name := range writeTools {
		assert.Contains(t, tools, name)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, false)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = newLogger(&buf, true)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger.Info("hello")
	assert.Contains(t, buf.String(), "service=intervals-mcp")
}
