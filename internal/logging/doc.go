// Package logging holds the structured logging helpers used across the
// Intervals.icu MCP server.
//
// All logging goes through log/slog. This package only fixes attribute names
// and keeps identifiers out of log output:
//
//	logger := logging.WithTool(slog.Default(), "get_events")
//	logger.Info("tool completed",
//	    logging.AthleteHash(athleteID),
//	    logging.Status(logging.StatusSuccess))
//
// Athlete IDs are hashed with AnonymizeID and API keys are masked with
// SanitizeToken before they reach a log line.
package logging
