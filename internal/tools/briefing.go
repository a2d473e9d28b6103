package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// BriefingTool handles the interview_briefing MCP tool: renders the
// session's answers as a markdown briefing document.
type BriefingTool struct {
	engine Interviewer
}

// NewBriefingTool creates a BriefingTool backed by the given engine.
func NewBriefingTool(engine Interviewer) *BriefingTool {
	return &BriefingTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *BriefingTool) Definition() mcp.Tool {
	return mcp.NewTool("interview_briefing",
		mcp.WithDescription(
			"Render the briefing document for an interview session as markdown. "+
				"Works at any point of the interview; a session with no recorded "+
				"answers renders an empty briefing.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier returned by interview_next."),
		),
	)
}

// Handle processes the interview_briefing tool call.
func (t *BriefingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	doc, err := t.engine.Transcript(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Falha ao gerar o briefing: %v", err)), nil
	}
	return mcp.NewToolResultText(doc), nil
}
