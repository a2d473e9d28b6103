// Package tools implements the MCP tool handlers for the interview.
//
// Each tool is a small struct holding its dependencies and exposing a
// Definition for registration plus a Handle compatible with mcp-go's
// CallToolRequest signature. One file per tool.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmcandrade/briefing/internal/interview"
)

// Interviewer is the engine surface the tools drive.
type Interviewer interface {
	Advance(ctx context.Context, sessionID, currentID, rawAnswer string) (interview.Result, error)
	Transcript(ctx context.Context, sessionID string) (string, error)
	Reset(ctx context.Context, sessionID string) error
}

// NextTool handles the interview_next MCP tool: one step of the
// interview per call.
type NextTool struct {
	engine Interviewer
}

// NewNextTool creates a NextTool backed by the given engine.
func NewNextTool(engine Interviewer) *NextTool {
	return &NextTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *NextTool) Definition() mcp.Tool {
	return mcp.NewTool("interview_next",
		mcp.WithDescription(
			"Advance the requirements interview by one step. Omit `current_id` to start "+
				"a new interview; afterwards, pass back the `next_id` from the previous "+
				"response together with the user's answer. A missing `session_id` starts "+
				"a fresh session with a generated id. Returns the next question, the new "+
				"step id, and whether the interview is finished.",
		),
		mcp.WithString("session_id",
			mcp.Description("Session identifier. Omit to start a new session."),
		),
		mcp.WithString("current_id",
			mcp.Description("Step id the answer belongs to. Omit on the first call."),
		),
		mcp.WithString("answer",
			mcp.Description("The user's answer to the current question, verbatim."),
		),
	)
}

// nextResponse is the JSON payload returned to the client.
type nextResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	NextID    string `json:"next_id,omitempty"`
	Done      bool   `json:"done"`
}

// Handle processes the interview_next tool call.
func (t *NextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	currentID := req.GetString("current_id", "")
	answer := req.GetString("answer", "")

	res, err := t.engine.Advance(ctx, sessionID, currentID, answer)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Falha ao avançar a entrevista: %v", err)), nil
	}

	payload, err := json.Marshal(nextResponse{
		SessionID: sessionID,
		Message:   res.Message,
		NextID:    res.NextID,
		Done:      res.Done,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
