package wellness_tools

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

// RegisterWellnessTools registers the wellness tools.
func RegisterWellnessTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getWellnessDataTool := mcp.NewTool("get_wellness_data",
		mcp.WithDescription("Get wellness data for an athlete from Intervals.icu"),
		common.AthleteIDOption(),
		common.APIKeyOption(),
		mcp.WithString("start_date",
			mcp.Description("Start date in YYYY-MM-DD format. Optional, defaults to 30 days ago."),
		),
		mcp.WithString("end_date",
			mcp.Description("End date in YYYY-MM-DD format. Optional, defaults to today."),
		),
	)
	s.AddTool(getWellnessDataTool, common.InstrumentedToolHandlerWithResource(
		"get_wellness_data", instrumentation.ResourceWellness, instrumentation.OperationList, sc,
		handleGetWellnessData(sc)))

	return nil
}

func handleGetWellnessData(sc *server.ServerContext) common.ToolHandler {
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

		data, err := sc.Client().Get(ctx, fmt.Sprintf("/athlete/%s/wellness", athleteID), common.APIKey(request), map[string]string{
			"oldest": startDate,
			"newest": endDate,
		})
		if err != nil {
			return mcp.NewToolResultError("Error fetching wellness data: " + err.Error()), nil
		}

		entries := format.WellnessEntries(data)
		if len(entries) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No wellness data found for athlete %s in the specified date range.", athleteID)), nil
		}

		var b strings.Builder
		b.WriteString("Wellness Data:\n\n")
		for _, entry := range entries {
			b.WriteString(format.WellnessEntry(entry))
			b.WriteString("\n\n")
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
