package activity_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/intervals-mcp/internal/format"
	"github.com/teemow/intervals-mcp/internal/instrumentation"
	"github.com/teemow/intervals-mcp/internal/server"
	"github.com/teemow/intervals-mcp/internal/tools/common"
)

const (
	defaultActivityLimit = 10

	// Unnamed activities are filtered after fetching, so more are requested.
	unnamedOverfetch = 3

	// DefaultStreamTypes is requested when get_activity_streams gets no types.
	DefaultStreamTypes = "time,watts,heartrate,cadence,altitude,distance,velocity_smooth"
)

// RegisterActivityTools registers all activity tools. They are read-only.
func RegisterActivityTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getActivitiesTool := mcp.NewTool("get_activities",
		mcp.WithDescription("Get a list of activities for an athlete from Intervals.icu"),
		common.AthleteIDOption(),
		common.APIKeyOption(),
		mcp.WithString("start_date",
			mcp.Description("Start date in YYYY-MM-DD format. Optional, defaults to 30 days ago."),
		),
		mcp.WithString("end_date",
			mcp.Description("End date in YYYY-MM-DD format. Optional, defaults to today."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of activities to return (default: 10)"),
		),
		mcp.WithBoolean("include_unnamed",
			mcp.Description("Whether to include unnamed activities (default: false)"),
		),
	)
	s.AddTool(getActivitiesTool, common.InstrumentedToolHandlerWithResource(
		"get_activities", instrumentation.ResourceActivities, instrumentation.OperationList, sc,
		handleGetActivities(sc)))

	getActivityDetailsTool := mcp.NewTool("get_activity_details",
		mcp.WithDescription("Get detailed information for a specific activity from Intervals.icu"),
		mcp.WithString("activity_id",
			mcp.Required(),
			mcp.Description("The Intervals.icu activity ID"),
		),
		common.APIKeyOption(),
	)
	s.AddTool(getActivityDetailsTool, common.InstrumentedToolHandlerWithResource(
		"get_activity_details", instrumentation.ResourceActivities, instrumentation.OperationGet, sc,
		handleGetActivityDetails(sc)))

	getActivityIntervalsTool := mcp.NewTool("get_activity_intervals",
		mcp.WithDescription("Get interval data for a specific activity from Intervals.icu"),
		mcp.WithString("activity_id",
			mcp.Required(),
			mcp.Description("The Intervals.icu activity ID"),
		),
		common.APIKeyOption(),
	)
	s.AddTool(getActivityIntervalsTool, common.InstrumentedToolHandlerWithResource(
		"get_activity_intervals", instrumentation.ResourceActivities, instrumentation.OperationGet, sc,
		handleGetActivityIntervals(sc)))

	getActivityStreamsTool := mcp.NewTool("get_activity_streams",
		mcp.WithDescription("Get stream data (time series telemetry) for a specific activity from Intervals.icu"),
		mcp.WithString("activity_id",
			mcp.Required(),
			mcp.Description("The Intervals.icu activity ID"),
		),
		common.APIKeyOption(),
		mcp.WithString("stream_types",
			mcp.Description("Comma-separated stream types to fetch, e.g. 'time,watts,heartrate'. Defaults to "+DefaultStreamTypes),
		),
	)
	s.AddTool(getActivityStreamsTool, common.InstrumentedToolHandlerWithResource(
		"get_activity_streams", instrumentation.ResourceActivities, instrumentation.OperationGet, sc,
		handleGetActivityStreams(sc)))

	return nil
}

func handleGetActivities(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		athleteID, err := common.ResolveAthleteID(request.GetString("athlete_id", ""), sc.DefaultAthleteID())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		now := time.Now()
		startDate, err := common.DateArg(request, "start_date", common.DefaultStartDate(now))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		endDate, err := common.DateArg(request, "end_date", common.DefaultEndDate(now))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		limit := request.GetInt("limit", defaultActivityLimit)
		if limit <= 0 {
			limit = defaultActivityLimit
		}
		includeUnnamed := request.GetBool("include_unnamed", false)

		fetchLimit := limit
		if !includeUnnamed {
			fetchLimit = limit * unnamedOverfetch
		}

		data, err := sc.Client().Get(ctx, fmt.Sprintf("/athlete/%s/activities", athleteID), common.APIKey(request), map[string]string{
			"oldest": startDate,
			"newest": endDate,
			"limit":  fmt.Sprint(fetchLimit),
		})
		if err != nil {
			return mcp.NewToolResultError("Error fetching activities: " + err.Error()), nil
		}

		activities, _ := format.Records(data)
		if !includeUnnamed {
			activities = namedOnly(activities)
		}
		if len(activities) > limit {
			activities = activities[:limit]
		}

		if len(activities) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No activities found for athlete %s in the specified date range.", athleteID)), nil
		}

		var b strings.Builder
		b.WriteString("Activities:\n\n")
		for _, a := range activities {
			b.WriteString(format.ActivitySummary(a))
			b.WriteString("\n")
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

// namedOnly drops activities Intervals.icu left unnamed.
func namedOnly(activities []format.Record) []format.Record {
	out := activities[:0:0]
	for _, a := range activities {
		name, _ := a["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" || name == "Unnamed" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func handleGetActivityDetails(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		activityID, err := request.RequireString("activity_id")
		if err != nil || activityID == "" {
			return mcp.NewToolResultError("Error: No activity ID provided."), nil
		}

		data, err := sc.Client().Get(ctx, "/activity/"+activityID, common.APIKey(request), nil)
		if err != nil {
			return mcp.NewToolResultError("Error fetching activity details: " + err.Error()), nil
		}

		// Some deployments wrap the activity in a single-element list.
		if list, ok := format.Records(data); ok && len(list) > 0 {
			data = map[string]any(list[0])
		}

		activity, ok := format.AsRecord(data)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid activity format for activity %s.", activityID)), nil
		}
		if len(activity) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No details found for activity %s.", activityID)), nil
		}

		return mcp.NewToolResultText(format.ActivityDetails(activity)), nil
	}
}

func handleGetActivityIntervals(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		activityID, err := request.RequireString("activity_id")
		if err != nil || activityID == "" {
			return mcp.NewToolResultError("Error: No activity ID provided."), nil
		}

		data, err := sc.Client().Get(ctx, "/activity/"+activityID+"/intervals", common.APIKey(request), nil)
		if err != nil {
			return mcp.NewToolResultError("Error fetching intervals: " + err.Error()), nil
		}

		if isEmpty(data) {
			return mcp.NewToolResultText(fmt.Sprintf("No interval data found for activity %s.", activityID)), nil
		}

		text, err := format.Intervals(data)
		if err != nil {
			return mcp.NewToolResultError("Error formatting intervals: " + err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func handleGetActivityStreams(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		activityID, err := request.RequireString("activity_id")
		if err != nil || activityID == "" {
			return mcp.NewToolResultError("Error: No activity ID provided."), nil
		}

		types := strings.TrimSpace(request.GetString("stream_types", ""))
		if types == "" {
			types = DefaultStreamTypes
		}

		data, err := sc.Client().Get(ctx, "/activity/"+activityID+"/streams", common.APIKey(request), map[string]string{
			"types": types,
		})
		if err != nil {
			return mcp.NewToolResultError("Error fetching activity streams: " + err.Error()), nil
		}

		if isEmpty(data) {
			return mcp.NewToolResultText(fmt.Sprintf("No stream data found for activity %s.", activityID)), nil
		}

		streams, ok := format.Records(data)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid stream format for activity %s.", activityID)), nil
		}
		return mcp.NewToolResultText(format.Streams(streams)), nil
	}
}

// isEmpty reports whether the decoded payload is null, {} or [].
func isEmpty(data any) bool {
	switch v := data.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}
