package calendar_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/server"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/tools/common"
)

// RegisterSchedulingTools registers availability tools with the MCP server.
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	findFreeSlotsTool := mcp.NewTool("calendar_find_free_slots",
		mcp.WithDescription("Find free time slots of at least a minimum duration within a time range"),
		mcp.WithString("after",
			mcp.Required(),
			mcp.Description("Start of the search window (RFC3339 format)"),
		),
		mcp.WithString("before",
			mcp.Required(),
			mcp.Description("End of the search window (RFC3339 format)"),
		),
		mcp.WithNumber("minDurationMinutes",
			mcp.Required(),
			mcp.Description("Minimum slot length in minutes"),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID to consider. Omit to consider all calendars."),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone for displaying slot times. Defaults to UTC."),
		),
	)

	s.AddTool(findFreeSlotsTool, common.InstrumentedToolHandler("calendar_find_free_slots", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindFreeSlots(ctx, request, sc)
		}))

	return nil
}

func handleFindFreeSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	after, errResult := requireInstant(args, "after")
	if errResult != nil {
		return errResult, nil
	}
	before, errResult := requireInstant(args, "before")
	if errResult != nil {
		return errResult, nil
	}
	minutes, ok := args["minDurationMinutes"].(float64)
	if !ok || minutes <= 0 {
		return mcp.NewToolResultError("minDurationMinutes is required and must be positive"), nil
	}

	calendarID := ""
	if calIDVal, ok := args["calendarId"].(string); ok {
		calendarID = calIDVal
	}
	displayZone := ""
	if tzVal, ok := args["timeZone"].(string); ok {
		displayZone = tzVal
	}

	slots, err := sc.Service().FindFreeSlots(ctx, calendarID, after, before,
		time.Duration(minutes)*time.Minute, displayZone)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find free slots: %v", err)), nil
	}

	if len(slots) == 0 {
		return mcp.NewToolResultText("No free slots found in the requested window."), nil
	}

	result := fmt.Sprintf("Found %d free slots:\n\n", len(slots))
	for i, slot := range slots {
		result += fmt.Sprintf("%d. %s - %s (%d minutes)\n", i+1,
			slot.StartLocal, slot.EndLocal, slot.DurationMinutes)
	}
	return mcp.NewToolResultText(result), nil
}
