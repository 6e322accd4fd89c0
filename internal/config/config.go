package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Transport names accepted by the serve command.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// DefaultAPIBaseURL is the public Intervals.icu REST endpoint.
const DefaultAPIBaseURL = "https://intervals.icu/api/v1"

var athleteIDPattern = regexp.MustCompile(`^i?\d+$`)

// ErrInvalidAthleteID is returned when ATHLETE_ID is set but malformed.
var ErrInvalidAthleteID = errors.New("ATHLETE_ID must be all digits (e.g. 123456) or start with 'i' followed by digits (e.g. i123456)")

// Config holds the process-wide configuration.
type Config struct {
	// Upstream API
	APIBaseURL     string        `env:"INTERVALS_API_BASE_URL" envDefault:"https://intervals.icu/api/v1"`
	AthleteID      string        `env:"ATHLETE_ID"`
	APIKey         string        `env:"API_KEY"`
	UserAgent      string        `env:"USER_AGENT" envDefault:"intervalsicu-mcp-server/1.0"`
	RequestTimeout time.Duration `env:"INTERVALS_REQUEST_TIMEOUT" envDefault:"30s"`

	// MCP server
	ServerAPIKey     string `env:"MCP_SERVER_API_KEY"`
	Transport        string `env:"MCP_TRANSPORT" envDefault:"stdio"`
	Host             string `env:"MCP_HOST" envDefault:"127.0.0.1"`
	Port             int    `env:"MCP_PORT" envDefault:"8000"`
	EnableWriteTools bool   `env:"MCP_ENABLE_WRITE_TOOLS" envDefault:"false"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; variables already set in
// the process environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the configuration from the current process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Transport = NormalizeTransport(cfg.Transport)
	cfg.AthleteID = strings.TrimSpace(cfg.AthleteID)
	return cfg, nil
}

// Validate checks the values that can be checked without network access.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportSSE, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport %q (supported: stdio, sse, streamable-http)", c.Transport)
	}
	if c.AthleteID != "" {
		if err := ValidateAthleteID(c.AthleteID); err != nil {
			return err
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// Addr returns the listen address for network transports.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ValidateAthleteID checks the Intervals.icu athlete identifier format.
func ValidateAthleteID(id string) error {
	if !athleteIDPattern.MatchString(id) {
		return ErrInvalidAthleteID
	}
	return nil
}

// NormalizeTransport lowercases the transport name and maps the "http" alias
// to streamable-http.
func NormalizeTransport(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	switch t {
	case "", TransportStdio:
		return TransportStdio
	case "http", "streamable_http", TransportStreamableHTTP:
		return TransportStreamableHTTP
	default:
		return t
	}
}
