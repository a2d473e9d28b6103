// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it loads the question graph, picks the
// ledger backend, builds the engine, and registers the tools, prompts,
// and resources. No business logic lives here — only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/dmcandrade/briefing/internal/config"
	"github.com/dmcandrade/briefing/internal/graph"
	"github.com/dmcandrade/briefing/internal/interview"
	"github.com/dmcandrade/briefing/internal/prompts"
	"github.com/dmcandrade/briefing/internal/resources"
	"github.com/dmcandrade/briefing/internal/session"
	"github.com/dmcandrade/briefing/internal/tools"
	"github.com/dmcandrade/briefing/internal/transcript"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the ledger backend and must be
// called on shutdown (typically via defer). It is always non-nil and
// safe to call even when wiring partially failed.
func New(cfg config.Config, log zerolog.Logger) (*server.MCPServer, func(), error) {
	// --- Load the question graph ---
	//
	// A misauthored graph (no start node, duplicate ids) aborts startup
	// here; it must never surface as a per-request failure.

	g, err := loadGraph(cfg)
	if err != nil {
		return nil, noop, err
	}
	log.Info().Int("nodes", len(g)).Msg("question graph loaded")

	renderer, err := transcript.NewRenderer()
	if err != nil {
		return nil, noop, fmt.Errorf("creating briefing renderer: %w", err)
	}

	// --- Pick the ledger backend ---
	//
	// A persistent backend that fails to initialize degrades to the
	// in-memory ledger with a warning: the interview keeps working,
	// sessions just do not survive a restart.

	ledger, cleanup := openLedger(cfg, log)

	engine := interview.New(g, ledger, renderer, log, cfg.PersistTimeout())

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"briefing",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	nextTool := tools.NewNextTool(engine)
	s.AddTool(nextTool.Definition(), nextTool.Handle)

	briefingTool := tools.NewBriefingTool(engine)
	s.AddTool(briefingTool.Definition(), briefingTool.Handle)

	resetTool := tools.NewResetTool(engine)
	s.AddTool(resetTool.Definition(), resetTool.Handle)

	// Session listing needs a backend that can enumerate sessions; all
	// three shipped backends can.
	if lister, ok := ledger.(session.Lister); ok {
		sessionsTool := tools.NewSessionsTool(lister)
		s.AddTool(sessionsTool.Definition(), sessionsTool.Handle)
	}

	pingTool := tools.NewPingTool()
	s.AddTool(pingTool.Definition(), pingTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(g)
	s.AddResource(resourceHandler.GraphResource(), resourceHandler.HandleGraph)

	return s, cleanup, nil
}

// noop is the default cleanup when no backend needs closing.
func noop() {}

// loadGraph reads the configured graph file, or falls back to the
// embedded questionnaire when none is configured.
func loadGraph(cfg config.Config) (graph.Graph, error) {
	if cfg.GraphPath != "" {
		g, err := graph.LoadFile(cfg.GraphPath)
		if err != nil {
			return nil, fmt.Errorf("loading question graph %s: %w", cfg.GraphPath, err)
		}
		return g, nil
	}
	g, err := graph.Default()
	if err != nil {
		return nil, fmt.Errorf("loading embedded question graph: %w", err)
	}
	return g, nil
}

// openLedger builds the configured ledger backend, degrading to the
// in-memory ledger when a persistent backend cannot be initialized.
func openLedger(cfg config.Config, log zerolog.Logger) (session.Ledger, func()) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		ledger, err := session.NewSQLiteLedger(cfg.DataDir)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite ledger unavailable, sessions will not survive restarts")
			return session.NewMemoryLedger(), noop
		}
		log.Info().Str("data_dir", cfg.DataDir).Msg("sqlite ledger ready")
		return ledger, func() {
			if err := ledger.Close(); err != nil {
				log.Warn().Err(err).Msg("closing sqlite ledger")
			}
		}

	case config.BackendRedis:
		ledger, err := session.NewRedisLedger(context.Background(), cfg.Storage.RedisURL, cfg.RedisTTL())
		if err != nil {
			log.Warn().Err(err).Msg("redis ledger unavailable, sessions will not survive restarts")
			return session.NewMemoryLedger(), noop
		}
		log.Info().Msg("redis ledger ready")
		return ledger, func() {
			if err := ledger.Close(); err != nil {
				log.Warn().Err(err).Msg("closing redis ledger")
			}
		}

	default:
		return session.NewMemoryLedger(), noop
	}
}

// serverInstructions returns the system instructions that tell the AI
// how to run the interview.
func serverInstructions() string {
	return `You have access to Briefing, a requirements-interview MCP server.

## WHEN TO ACTIVATE Briefing

Proactively suggest running the interview when the user:
- Wants to kick off a new project or feature and has not stated requirements
- Says things like "I have an idea for...", "I need a system that..."
- Asks you to gather or document requirements

## HOW TO RUN THE INTERVIEW

1. Call interview_next with no current_id to get the first question.
   Reuse the returned session_id on every following call.
2. Ask the user the question EXACTLY as returned. Do not rephrase it and
   do not answer for the user.
3. Call interview_next with the previous next_id as current_id and the
   user's answer, verbatim.
4. Repeat until done = true.
5. Call interview_briefing and present the rendered document.

Use interview_reset if the user wants to start over, and
interview_sessions to find a previous session to resume.`
}
