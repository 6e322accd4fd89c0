// Package config resolves the process-wide settings for the Intervals.icu MCP
// server from the environment.
//
// Values are read from environment variables, optionally seeded from a .env
// file in the working directory. The per-call arguments of the MCP tools
// (athlete_id, api_key) override the defaults held here.
package config
