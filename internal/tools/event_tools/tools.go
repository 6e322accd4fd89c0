package event_tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/intervals-mcp/internal/format"
	"github.com/teemow/intervals-mcp/internal/instrumentation"
	"github.com/teemow/intervals-mcp/internal/intervals"
	"github.com/teemow/intervals-mcp/internal/logging"
	"github.com/teemow/intervals-mcp/internal/server"
	"github.com/teemow/intervals-mcp/internal/tools/batch"
	"github.com/teemow/intervals-mcp/internal/tools/common"
)

// RegisterEventTools registers the event tools. The write tools are only
// registered when readOnly is false.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getEventsTool := mcp.NewTool("get_events",
		mcp.WithDescription("Get events (planned workouts, races, notes) for an athlete from Intervals.icu"),
		common.AthleteIDOption(),
		common.APIKeyOption(),
		mcp.WithString("start_date",
			mcp.Description("Start date in YYYY-MM-DD format. Optional, defaults to today."),
		),
		mcp.WithString("end_date",
			mcp.Description("End date in YYYY-MM-DD format. Optional, defaults to 30 days from today."),
		),
	)
	s.AddTool(getEventsTool, common.InstrumentedToolHandlerWithResource(
		"get_events", instrumentation.ResourceEvents, instrumentation.OperationList, sc,
		handleGetEvents(sc)))

	getEventByIDTool := mcp.NewTool("get_event_by_id",
		mcp.WithDescription("Get detailed information for a specific event from Intervals.icu"),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The Intervals.icu event ID"),
		),
		common.AthleteIDOption(),
		common.APIKeyOption(),
	)
	s.AddTool(getEventByIDTool, common.InstrumentedToolHandlerWithResource(
		"get_event_by_id", instrumentation.ResourceEvents, instrumentation.OperationGet, sc,
		handleGetEventByID(sc)))

	if readOnly {
		return nil
	}

	addOrUpdateEventTool := mcp.NewTool("add_or_update_event",
		mcp.WithDescription("Create a planned workout on the Intervals.icu calendar, or update it when event_id is given. Always ask the user for confirmation before using this tool."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the workout"),
		),
		mcp.WithString("workout_type",
			mcp.Description("Workout type (e.g. Ride, Run, Swim, Walk, Row). Inferred from the name when omitted."),
		),
		common.AthleteIDOption(),
		common.APIKeyOption(),
		mcp.WithString("event_id",
			mcp.Description("The Intervals.icu event ID. If provided, the event is updated. Otherwise a new event is created."),
		),
		mcp.WithString("start_date",
			mcp.Description("Start date in YYYY-MM-DD format. Optional, defaults to today."),
		),
		mcp.WithObject("workout_doc",
			mcp.Description(workoutDocDescription),
		),
		mcp.WithNumber("moving_time",
			mcp.Description("Total expected moving time of the workout in seconds"),
		),
		mcp.WithNumber("distance",
			mcp.Description("Total expected distance of the workout in meters"),
		),
	)
	s.AddTool(addOrUpdateEventTool, common.InstrumentedToolHandlerWithResource(
		"add_or_update_event", instrumentation.ResourceEvents, instrumentation.OperationCreate, sc,
		handleAddOrUpdateEvent(sc)))

	deleteEventTool := mcp.NewTool("delete_event",
		mcp.WithDescription("Delete an event from the Intervals.icu calendar. Always ask the user for confirmation before using this tool."),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The Intervals.icu event ID to delete"),
		),
		common.AthleteIDOption(),
		common.APIKeyOption(),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithResource(
		"delete_event", instrumentation.ResourceEvents, instrumentation.OperationDelete, sc,
		handleDeleteEvent(sc)))

	deleteEventsByDateRangeTool := mcp.NewTool("delete_events_by_date_range",
		mcp.WithDescription("Delete all events in a date range from the Intervals.icu calendar. Always ask the user for confirmation before using this tool."),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("Start date in YYYY-MM-DD format"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("End date in YYYY-MM-DD format"),
		),
		common.AthleteIDOption(),
		common.APIKeyOption(),
	)
	s.AddTool(deleteEventsByDateRangeTool, common.InstrumentedToolHandlerWithResource(
		"delete_events_by_date_range", instrumentation.ResourceEvents, instrumentation.OperationDelete, sc,
		handleDeleteEventsByDateRange(sc)))

	return nil
}

const workoutDocDescription = `Workout structure with a description and a list of steps. ` +
	`Each step may set text, duration (seconds), distance (meters), warmup, cooldown, ramp, free, ` +
	`reps with nested steps, and one of power, hr, pace or cadence. ` +
	`Targets use {"value": 80, "units": "%ftp"} or a range {"start": 80, "end": 90, "units": "%ftp"}. ` +
	`Units: %ftp, w, power_zone, %hr, %lthr, hr_zone, %pace, pace_zone, rpm.`

func handleGetEvents(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		athleteID, err := common.ResolveAthleteID(request.GetString("athlete_id", ""), sc.DefaultAthleteID())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		now := time.Now()
		startDate, err := common.DateArg(request, "start_date", common.DefaultEndDate(now))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		endDate, err := common.DateArg(request, "end_date", common.DefaultFutureEndDate(now))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := sc.Client().Get(ctx, eventsPath(athleteID), common.APIKey(request), map[string]string{
			"oldest": startDate,
			"newest": endDate,
		})
		if err != nil {
			return mcp.NewToolResultError("Error fetching events: " + err.Error()), nil
		}

		events, _ := format.Records(data)
		if len(events) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No events found for athlete %s in the specified date range.", athleteID)), nil
		}

		var b strings.Builder
		b.WriteString("Events:\n\n")
		for _, e := range events {
			b.WriteString(format.EventSummary(e))
			b.WriteString("\n\n")
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleGetEventByID(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		athleteID, err := common.ResolveAthleteID(request.GetString("athlete_id", ""), sc.DefaultAthleteID())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		eventID, ok := idArg(request, "event_id")
		if !ok {
			return mcp.NewToolResultError("Error: No event ID provided."), nil
		}

		data, err := sc.Client().Get(ctx, fmt.Sprintf("/athlete/%s/event/%s", athleteID, eventID), common.APIKey(request), nil)
		if err != nil {
			return mcp.NewToolResultError("Error fetching event details: " + err.Error()), nil
		}

		if isEmpty(data) {
			return mcp.NewToolResultText(fmt.Sprintf("No details found for event %s.", eventID)), nil
		}

		event, ok := format.AsRecord(data)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid event format for event %s.", eventID)), nil
		}
		return mcp.NewToolResultText(format.EventDetails(event)), nil
	}
}

func handleAddOrUpdateEvent(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		athleteID, err := common.ResolveAthleteID(request.GetString("athlete_id", ""), sc.DefaultAthleteID())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		name := request.GetString("name", "")
		if strings.TrimSpace(name) == "" {
			return mcp.NewToolResultError("Error: name is required."), nil
		}

		startDate, err := common.DateArg(request, "start_date", common.DefaultEndDate(time.Now()))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		doc, err := workoutDocArg(request)
		if err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}

		body := NewEventBody(EventInput{
			Name:        name,
			WorkoutType: request.GetString("workout_type", ""),
			StartDate:   startDate,
			WorkoutDoc:  doc,
			MovingTime:  optionalInt(request, "moving_time"),
			Distance:    optionalInt(request, "distance"),
		})

		apiKey := common.APIKey(request)
		var (
			data   any
			action string
		)
		if eventID, ok := idArg(request, "event_id"); ok {
			action = "updated"
			data, err = sc.Client().Put(ctx, eventsPath(athleteID)+"/"+eventID, apiKey, body)
		} else {
			action = "created"
			data, err = sc.Client().Post(ctx, eventsPath(athleteID), apiKey, body)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error %s event: %s", action, err.Error())), nil
		}

		if isEmpty(data) {
			return mcp.NewToolResultText(fmt.Sprintf("No events %s for athlete %s.", action, athleteID)), nil
		}
		if event, ok := format.AsRecord(data); ok {
			return mcp.NewToolResultText(fmt.Sprintf("Successfully %s event: %s", action, indentJSON(event))), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Event %s successfully at %s", action, startDate)), nil
	}
}

func handleDeleteEvent(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		athleteID, err := common.ResolveAthleteID(request.GetString("athlete_id", ""), sc.DefaultAthleteID())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		eventID, ok := idArg(request, "event_id")
		if !ok {
			return mcp.NewToolResultError("Error: No event ID provided."), nil
		}

		data, err := sc.Client().Delete(ctx, eventsPath(athleteID)+"/"+eventID, common.APIKey(request))
		if err != nil {
			return mcp.NewToolResultError("Error deleting event: " + err.Error()), nil
		}

		return mcp.NewToolResultText(indentJSON(data)), nil
	}
}

func handleDeleteEventsByDateRange(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		athleteID, err := common.ResolveAthleteID(request.GetString("athlete_id", ""), sc.DefaultAthleteID())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		startDate, err := requiredDate(request, "start_date")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		endDate, err := requiredDate(request, "end_date")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		apiKey := common.APIKey(request)
		data, err := sc.Client().Get(ctx, eventsPath(athleteID), apiKey, map[string]string{
			"oldest": startDate,
			"newest": endDate,
		})
		if err != nil {
			return mcp.NewToolResultError("Error deleting events: " + err.Error()), nil
		}

		items, _ := data.([]any)
		results := batch.ProcessItems(ctx, items, func(ctx context.Context, id string) error {
			_, err := sc.Client().Delete(ctx, eventsPath(athleteID)+"/"+id, apiKey)
			return err
		})
		logger := logging.WithOperation(sc.Logger(), "delete_events_by_date_range")
		for _, r := range results {
			if !r.Succeeded() {
				logger.Warn("failed to delete event", "event_id", r.ID, logging.Err(r.Err))
			}
		}

		summary := batch.Summarize(results)
		return mcp.NewToolResultText(fmt.Sprintf("Deleted %d events. Failed to delete %d events: %s",
			summary.Succeeded, summary.Failed(), summary.FailedList())), nil
	}
}

func eventsPath(athleteID string) string {
	return "/athlete/" + athleteID + "/events"
}

// idArg returns an identifier argument that may arrive as a string or a
// number.
func idArg(request mcp.CallToolRequest, key string) (string, bool) {
	id, ok := batch.ID(request.GetArguments()[key])
	if !ok {
		return "", false
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

func requiredDate(request mcp.CallToolRequest, key string) (string, error) {
	value := strings.TrimSpace(request.GetString(key, ""))
	if value == "" {
		return "", fmt.Errorf("Error: %s is required.", key)
	}
	if err := common.ValidateDate(value); err != nil {
		return "", err
	}
	return value, nil
}

func optionalInt(request mcp.CallToolRequest, key string) *int {
	if v, ok := request.GetArguments()[key]; !ok || v == nil {
		return nil
	}
	n := request.GetInt(key, 0)
	return &n
}

// workoutDocArg decodes the workout_doc argument. Clients send either an
// object or its JSON encoding as a string.
func workoutDocArg(request mcp.CallToolRequest) (*intervals.WorkoutDoc, error) {
	raw, ok := request.GetArguments()["workout_doc"]
	if !ok || raw == nil {
		return nil, nil
	}

	var payload []byte
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		payload = []byte(v)
	default:
		var err error
		if payload, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("invalid workout_doc: %w", err)
		}
	}

	var doc intervals.WorkoutDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("invalid workout_doc: %w", err)
	}
	return &doc, nil
}

// indentJSON renders v the way the Intervals.icu web UI shows raw payloads.
func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

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
