// Package activity_tools provides MCP tools for reading recorded activities
// from Intervals.icu: activity lists, details, interval splits and telemetry
// streams.
package activity_tools
