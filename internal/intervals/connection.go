package intervals

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/teemow/intervals-mcp/internal/logging"
)

// connection is the shared HTTP handle. Once closed it rejects every request
// with ErrConnectionClosed and is never reopened; the Client replaces it.
type connection struct {
	http   *resty.Client
	closed atomic.Bool
}

type connectionOptions struct {
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
	logger    *slog.Logger
}

func newConnection(opts connectionOptions) *connection {
	conn := &connection{}

	base := opts.transport
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	conn.http = resty.New().
		SetTransport(&closableTransport{conn: conn, next: base}).
		SetTimeout(opts.timeout).
		SetLogger(logging.NewSlogAdapter(opts.logger.With("component", "resty"))).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.userAgent)

	return conn
}

func (c *connection) isClosed() bool {
	return c.closed.Load()
}

// close marks the handle closed and drops its idle connections. It reports
// whether this call performed the close.
func (c *connection) close() bool {
	if !c.closed.CompareAndSwap(false, true) {
		return false
	}
	c.http.GetClient().CloseIdleConnections()
	return true
}

// closableTransport refuses to send once its connection is closed.
type closableTransport struct {
	conn *connection
	next http.RoundTripper
}

func (t *closableTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.conn.isClosed() {
		return nil, ErrConnectionClosed
	}
	return t.next.RoundTrip(req)
}

func (t *closableTransport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if ci, ok := t.next.(closeIdler); ok {
		ci.CloseIdleConnections()
	}
}
