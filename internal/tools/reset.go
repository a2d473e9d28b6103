package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResetTool handles the interview_reset MCP tool: wipes a session's
// history and snapshot so the interview can start over.
type ResetTool struct {
	engine Interviewer
}

// NewResetTool creates a ResetTool backed by the given engine.
func NewResetTool(engine Interviewer) *ResetTool {
	return &ResetTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ResetTool) Definition() mcp.Tool {
	return mcp.NewTool("interview_reset",
		mcp.WithDescription(
			"Discard all recorded answers and the persisted snapshot of an "+
				"interview session. The next interview_next call for the same "+
				"session id starts from the first question.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier to reset."),
		),
	)
}

// Handle processes the interview_reset tool call.
func (t *ResetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	if err := t.engine.Reset(ctx, sessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Falha ao reiniciar a sessão: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Sessão `%s` reiniciada.", sessionID)), nil
}
