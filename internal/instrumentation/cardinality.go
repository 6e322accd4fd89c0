package instrumentation

// Label helpers that keep metric cardinality bounded.

// knownPaths are the inbound HTTP paths served by the network transports.
var knownPaths = map[string]bool{
	"/mcp":              true,
	"/sse":              true,
	"/message":          true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
	"/metrics":          true,
}

// NormalizePath maps an inbound request path to a bounded label value.
// Unknown paths collapse to "other" so scanners cannot create new series.
//
// Example:
//
//	NormalizePath("/mcp")        // "/mcp"
//	NormalizePath("/wp-admin")   // "other"
func NormalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}

// Operation types for Intervals.icu API calls and tool audit records.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)
