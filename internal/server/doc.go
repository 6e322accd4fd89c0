// Package server holds the runtime state shared by the MCP tools and the
// HTTP plumbing for the network transports.
//
// ServerContext owns the resolved configuration, the Intervals.icu client
// and the optional metrics and audit logger. Shutdown is idempotent and
// closes the client exactly once.
//
// HTTPServer exposes the MCP server over SSE (/sse and /message) or
// streamable HTTP (/mcp). MCP endpoints require a bearer token equal to
// MCP_SERVER_API_KEY; failures get a 401 JSON body and a
// WWW-Authenticate: Bearer header. The health endpoints /healthz, /readyz
// and /healthz/detailed need no token.
//
// MetricsServer serves Prometheus metrics on a separate port.
package server
