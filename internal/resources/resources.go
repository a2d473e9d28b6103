// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (interview://...) following
// MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmcandrade/briefing/internal/graph"
)

// Handler serves the interview resource endpoints.
type Handler struct {
	graph graph.Graph
}

// NewHandler creates a resource Handler over the loaded question graph.
func NewHandler(g graph.Graph) *Handler {
	return &Handler{graph: g}
}

// GraphResource returns the MCP resource definition for the question
// graph.
func (h *Handler) GraphResource() mcp.Resource {
	return mcp.NewResource(
		"interview://graph",
		"Interview Question Graph",
		mcp.WithResourceDescription("The loaded questionnaire: every node with its prompt, branches, and fallback"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleGraph returns the question graph as JSON, keyed by node id.
func (h *Handler) HandleGraph(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(h.graph, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling graph: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
