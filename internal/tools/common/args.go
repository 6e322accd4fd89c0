package common

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// AthleteIDOption declares the optional athlete_id argument.
func AthleteIDOption() mcp.ToolOption {
	return mcp.WithString("athlete_id",
		mcp.Description("The Intervals.icu athlete ID. Optional, defaults to ATHLETE_ID from the environment."),
	)
}

// APIKeyOption declares the optional api_key argument.
func APIKeyOption() mcp.ToolOption {
	return mcp.WithString("api_key",
		mcp.Description("The Intervals.icu API key. Optional, defaults to API_KEY from the environment."),
	)
}

// APIKey returns the api_key argument, or "" to use the configured key.
func APIKey(request mcp.CallToolRequest) string {
	return request.GetString("api_key", "")
}
