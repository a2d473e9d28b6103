// Package prompts implements the MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the interview-start MCP prompt. It steers the AI
// through the full question loop: ask, collect the answer, call
// interview_next, repeat until done, then render the briefing.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("interview-start",
		mcp.WithPromptDescription(
			"Start a requirements interview. Walks the user through the "+
				"questionnaire one question at a time and finishes with a "+
				"briefing document summarizing every answer.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Session id to resume. Omit to start fresh."),
		),
	)
}

// Handle processes the interview-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sessionNote := "Omit `session_id` on the first call and reuse the generated one afterwards."
	if args := req.Params.Arguments; args != nil {
		if id, ok := args["session_id"]; ok && id != "" {
			sessionNote = fmt.Sprintf("Use session_id='%s' on every call.", id)
		}
	}

	return &mcp.GetPromptResult{
		Description: "Conduct a requirements interview",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Conduct a requirements-elicitation interview with me.\n\n"+
						"Please:\n"+
						"1. Call `interview_next` with no `current_id` to get the first question. %s\n"+
						"2. Ask me the question exactly as returned and wait for my answer\n"+
						"3. Call `interview_next` again with the previous `next_id` as `current_id` and my answer, verbatim\n"+
						"4. Repeat until the response comes back with `done = true`\n"+
						"5. Call `interview_briefing` and show me the rendered briefing document\n\n"+
						"Do not rephrase the questions and do not answer on my behalf.",
					sessionNote,
				)),
			},
		},
	}, nil
}
