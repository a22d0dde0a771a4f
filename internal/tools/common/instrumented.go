package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/logging"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with metrics and debug
// logging. Tool errors returned via NewToolResultError count as errors
// even though the handler returns them with a nil error.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := logging.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = logging.StatusError
		}

		if metrics := sc.Metrics(); metrics != nil {
			metrics.RecordToolCall(toolName, sc.Service().Backend(), status, duration)
		}
		sc.Logger().Debug("tool invocation",
			logging.Tool(toolName),
			logging.Status(status),
			logging.KeyDuration, duration.String())

		return result, err
	}
}
