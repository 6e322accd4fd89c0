package intervals

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/teemow/intervals-mcp/internal/instrumentation"
	"github.com/teemow/intervals-mcp/internal/logging"
)

const (
	// DefaultBaseURL is the public Intervals.icu REST endpoint.
	DefaultBaseURL = "https://intervals.icu/api/v1"

	// DefaultTimeout applies to every request.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies this server to Intervals.icu.
	DefaultUserAgent = "intervalsicu-mcp-server/1.0"

	// basicAuthUsername is the fixed username Intervals.icu expects with an
	// API key as password.
	basicAuthUsername = "API_KEY"

	maxLoggedBody = 512
)

// MetricsRecorder receives one observation per request.
type MetricsRecorder interface {
	RecordIntervalsRequest(ctx context.Context, resource, method, status string, duration time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration

	// Transport overrides the underlying round tripper, mostly for tests.
	Transport http.RoundTripper

	Logger  *slog.Logger
	Metrics MetricsRecorder
}

// Request describes a single API call. Path is relative to the base URL and
// already has its identifiers interpolated.
type Request struct {
	Method string
	Path   string
	APIKey string
	Query  map[string]string
	Body   any
}

// Client issues authenticated requests against the Intervals.icu API over a
// lazily created shared connection.
type Client struct {
	baseURL string
	apiKey  string
	logger  *slog.Logger
	metrics MetricsRecorder

	newConn func() *connection

	mu     sync.Mutex
	conn   *connection
	closed bool
}

// NewClient creates a Client. No connection is opened until the first request.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	logger := opts.Logger.With(logging.Service("intervals"))
	connOpts := connectionOptions{
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		transport: opts.Transport,
		logger:    logger,
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		logger:  logger,
		metrics: opts.Metrics,
		newConn: func() *connection { return newConnection(connOpts) },
	}
}

// HasDefaultAPIKey reports whether a process-wide API key is configured.
func (c *Client) HasDefaultAPIKey() bool {
	return c.apiKey != ""
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path, apiKey string, query map[string]string) (any, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, APIKey: apiKey, Query: query})
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path, apiKey string, body any) (any, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, APIKey: apiKey, Body: body})
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path, apiKey string, body any) (any, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, APIKey: apiKey, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path, apiKey string) (any, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, APIKey: apiKey})
}

// Do sends req and returns the decoded JSON payload. An empty response body
// decodes to an empty object. Every failure is returned as an *Error.
func (c *Client) Do(ctx context.Context, req Request) (any, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	url := c.baseURL + req.Path

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.apiKey
	}
	if apiKey == "" {
		err := &Error{Kind: KindConfig, Message: MissingAPIKeyMessage, URL: url}
		c.logger.Warn("intervals request rejected", "url", url, logging.Err(err))
		return nil, err
	}

	resource := resourceName(req.Path)
	ctx, span := instrumentation.StartIntervalsSpan(ctx, resource, method)
	defer span.End()

	start := time.Now()
	result, err := c.send(ctx, method, url, apiKey, req)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	if c.metrics != nil {
		c.metrics.RecordIntervalsRequest(ctx, resource, method, status, time.Since(start))
	}

	return result, err
}

func (c *Client) send(ctx context.Context, method, url, apiKey string, req Request) (any, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, c.transportError(url, err)
	}

	resp, err := c.execute(ctx, conn, method, url, apiKey, req)
	if errors.Is(err, ErrConnectionClosed) {
		c.logger.Debug("shared connection closed, recreating", "url", url)
		c.discard(conn)
		if conn, err = c.connection(); err != nil {
			return nil, c.transportError(url, err)
		}
		resp, err = c.execute(ctx, conn, method, url, apiKey, req)
	}
	if err != nil {
		return nil, c.transportError(url, err)
	}

	return c.parse(ctx, url, resp)
}

func (c *Client) execute(ctx context.Context, conn *connection, method, url, apiKey string, req Request) (*resty.Response, error) {
	r := conn.http.R().
		SetContext(ctx).
		SetBasicAuth(basicAuthUsername, apiKey)

	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}

	if method == http.MethodPost || method == http.MethodPut {
		r.SetHeader("Content-Type", "application/json")
		if req.Body != nil {
			payload, err := json.Marshal(req.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			r.SetBody(payload)
		}
	}

	return r.Execute(method, url)
}

func (c *Client) parse(ctx context.Context, url string, resp *resty.Response) (any, error) {
	body := resp.Body()
	code := resp.StatusCode()

	var data any
	if len(bytes.TrimSpace(body)) == 0 {
		data = map[string]any{}
	} else if err := json.Unmarshal(body, &data); err != nil {
		e := &Error{Kind: KindDecode, StatusCode: code, Message: InvalidJSONMessage, URL: url, Err: err}
		c.logger.Warn("intervals response is not valid JSON",
			"url", url,
			"status_code", code,
			"body", truncate(string(body)),
			logging.Err(err))
		return nil, e
	}

	if code < 200 || code >= 300 {
		e := &Error{Kind: KindStatus, StatusCode: code, Message: StatusMessage(code, string(body)), URL: url}
		c.logger.Warn("intervals request failed",
			"url", url,
			"status_code", code,
			"body", truncate(string(body)),
			"trace_id", instrumentation.GetTraceID(ctx))
		return nil, e
	}

	return data, nil
}

func (c *Client) transportError(url string, err error) *Error {
	e := &Error{Kind: KindTransport, Message: fmt.Sprintf("Request error: %v", err), URL: url, Err: err}
	c.logger.Error("intervals request error", "url", url, logging.Err(err))
	return e
}

// connection returns the shared handle, creating a new one when none exists
// or the current one has been closed.
func (c *Client) connection() (*connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if c.conn == nil || c.conn.isClosed() {
		c.conn = c.newConn()
	}
	return c.conn, nil
}

// discard closes conn and forgets it if it is still the shared handle.
func (c *Client) discard(conn *connection) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.close()
}

// Close tears down the shared connection. Requests issued afterwards fail
// with a transport error. Calling Close more than once is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		c.conn.close()
		c.conn = nil
	}
	return nil
}

// resourceName derives a low-cardinality label from a request path by
// dropping the identifier segments, e.g. "/athlete/1/events/2" -> "events".
func resourceName(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	names := make([]string, 0, len(parts))
	for i, p := range parts {
		if i%2 == 1 || p == "athlete" || p == "" {
			continue
		}
		names = append(names, p)
	}
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, "_")
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}
