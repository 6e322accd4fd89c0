package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the intervals-mcp application
var rootCmd = &cobra.Command{
	Use:   "intervals-mcp",
	Short: "MCP server for the Intervals.icu training platform",
	Long: `intervals-mcp exposes the Intervals.icu API to AI assistants through the
Model Context Protocol (MCP).

Assistants can read activities, interval splits, telemetry streams, wellness
data and calendar events. Creating and deleting events is only possible when
write tools are enabled.

Configuration is read from the environment and an optional .env file:
  ATHLETE_ID           Intervals.icu athlete ID (required)
  API_KEY              Intervals.icu API key
  MCP_SERVER_API_KEY   server auth token, required; sent as a bearer token over sse and streamable-http`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "intervals-mcp version %s\n" .Version}}`)

	// Without a subcommand the MCP server starts with the stdio transport.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
