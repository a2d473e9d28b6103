package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmcandrade/briefing/internal/session"
)

const defaultSessionLimit = 20

// SessionsTool handles the interview_sessions MCP tool: lists the most
// recently updated sessions from the ledger.
type SessionsTool struct {
	lister session.Lister
}

// NewSessionsTool creates a SessionsTool over a listing-capable ledger.
func NewSessionsTool(lister session.Lister) *SessionsTool {
	return &SessionsTool{lister: lister}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionsTool) Definition() mcp.Tool {
	return mcp.NewTool("interview_sessions",
		mcp.WithDescription(
			"List recent interview sessions, most recently updated first. "+
				"Shows each session's id, current step, completion flag, and "+
				"number of recorded answers.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of sessions to return (default 20)."),
		),
	)
}

// Handle processes the interview_sessions tool call.
func (t *SessionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultSessionLimit)
	if limit <= 0 {
		limit = defaultSessionLimit
	}

	snaps, err := t.lister.RecentSessions(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Falha ao listar sessões: %v", err)), nil
	}
	if len(snaps) == 0 {
		return mcp.NewToolResultText("Nenhuma sessão registrada."), nil
	}

	var b strings.Builder
	b.WriteString("| Sessão | Atualizada | Passo atual | Concluída | Respostas |\n")
	b.WriteString("|--------|------------|-------------|-----------|-----------|\n")
	for _, s := range snaps {
		done := "não"
		if s.Done {
			done = "sim"
		}
		current := s.CurrentID
		if current == "" {
			current = "—"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %d |\n",
			s.SessionID, s.UpdatedAt, current, done, len(s.History))
	}
	return mcp.NewToolResultText(b.String()), nil
}
