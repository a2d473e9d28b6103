package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// PingTool handles the interview_ping MCP tool: a liveness probe with
// no engine or storage dependency.
type PingTool struct{}

// NewPingTool creates a PingTool.
func NewPingTool() *PingTool {
	return &PingTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *PingTool) Definition() mcp.Tool {
	return mcp.NewTool("interview_ping",
		mcp.WithDescription("Liveness probe. Always answers ok while the server is running."),
	)
}

// Handle processes the interview_ping tool call.
func (t *PingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(`{"status":"ok"}`), nil
}
