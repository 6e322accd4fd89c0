// Package wellness_tools provides the get_wellness_data MCP tool, which
// reports daily wellness records (fitness and fatigue, HRV, sleep, subjective
// scores) from Intervals.icu.
package wellness_tools
