// Package interview implements the flow engine: given the current step
// of a session and the user's raw answer, it decides the next step,
// records history, and keeps a persisted snapshot of the session.
//
// The engine never lets a storage fault alter the response it already
// computed. Snapshot reads and writes run under a bounded timeout and
// failures are logged and swallowed, so durability is best-effort and
// at-most-once.
package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmcandrade/briefing/internal/answer"
	"github.com/dmcandrade/briefing/internal/graph"
	"github.com/dmcandrade/briefing/internal/session"
	"github.com/dmcandrade/briefing/internal/transcript"
)

// User-facing messages for the terminal outcomes.
const (
	msgInvalidStep   = "Passo inválido. Reinicie a entrevista."
	msgMisconfigured = "Fluxo mal configurado (próximo passo não encontrado)."
	msgFinished      = "Entrevista concluída. Obrigado!"
)

const defaultPersistTimeout = 2 * time.Second

// Result is the outcome of one advance call. NextID is empty on the
// invalid-step and misconfigured-flow terminal outcomes and carries the
// end sentinel when the interview finishes.
type Result struct {
	Message string `json:"message"`
	NextID  string `json:"next_id,omitempty"`
	Done    bool   `json:"done"`
}

// Engine drives the interview over an immutable question graph. The
// graph is shared read-only across sessions; all per-session state
// lives in the ledger.
type Engine struct {
	graph          graph.Graph
	ledger         session.Ledger
	renderer       *transcript.Renderer
	log            zerolog.Logger
	persistTimeout time.Duration
}

// New builds an engine. A non-positive persistTimeout falls back to the
// default bound.
func New(g graph.Graph, ledger session.Ledger, renderer *transcript.Renderer, log zerolog.Logger, persistTimeout time.Duration) *Engine {
	if persistTimeout <= 0 {
		persistTimeout = defaultPersistTimeout
	}
	return &Engine{
		graph:          g,
		ledger:         ledger,
		renderer:       renderer,
		log:            log,
		persistTimeout: persistTimeout,
	}
}

// Graph returns the question graph the engine was built with.
func (e *Engine) Graph() graph.Graph {
	return e.graph
}

// Advance moves a session one step. An empty or null-literal currentID
// starts the interview at the start node. The raw answer is recorded in
// history exactly as the user wrote it; normalization applies only to
// branch resolution.
func (e *Engine) Advance(ctx context.Context, sessionID, currentID, rawAnswer string) (Result, error) {
	current := answer.Normalize(currentID)
	ans := answer.Normalize(rawAnswer)

	// Record the prior answer before moving on. This is the only path
	// that mutates history, and it stores the unnormalized answer next
	// to the node's original prompt.
	if ans != "" {
		if node, ok := e.graph[current]; ok {
			entry := session.Entry{NodeID: current, Prompt: node.Text, Answer: rawAnswer}
			if err := e.ledger.Append(ctx, sessionID, entry); err != nil {
				e.log.Warn().Err(err).Str("session_id", sessionID).Str("node_id", current).
					Msg("history append failed, continuing without it")
			}
		}
	}

	// Session start.
	if current == "" {
		start, ok := e.graph[graph.StartID]
		if !ok {
			return Result{}, ErrStartNodeMissing
		}
		res := Result{Message: start.Text, NextID: graph.StartID, Done: false}
		e.persist(ctx, sessionID, res)
		return res, nil
	}

	node, ok := e.graph[current]
	if !ok {
		e.log.Warn().Err(ErrInvalidStep).Str("session_id", sessionID).Str("current_id", current).
			Msg("advance rejected")
		return Result{Message: msgInvalidStep, Done: true}, nil
	}

	next := e.resolveNext(node, rawAnswer, ans)

	if next == graph.EndID {
		res := Result{Message: msgFinished, NextID: graph.EndID, Done: true}
		e.persist(ctx, sessionID, res)
		return res, nil
	}

	nextNode, ok := e.graph[next]
	if !ok {
		e.log.Error().Err(ErrMisconfiguredFlow).Str("session_id", sessionID).
			Str("current_id", current).Str("next_id", next).
			Msg("advance rejected")
		return Result{Message: msgMisconfigured, Done: true}, nil
	}

	res := Result{Message: nextNode.Text, NextID: next, Done: false}
	e.persist(ctx, sessionID, res)
	return res, nil
}

// resolveNext applies the branch table, then the unconditional next
// pointer, then the end sentinel. Branch keys are canonicalized at
// graph load, so a single canonical lookup of the answer suffices.
func (e *Engine) resolveNext(node graph.Node, rawAnswer, normalized string) string {
	if len(node.Branches) > 0 && normalized != "" {
		if target, ok := node.Branches[answer.Canonical(rawAnswer)]; ok {
			return target
		}
		if target, ok := node.Branches["*"]; ok {
			return target
		}
		if target, ok := node.Branches["default"]; ok {
			return target
		}
	}
	if node.Next != "" {
		return node.Next
	}
	return graph.EndID
}

// persist upserts the session snapshot after a non-fatal result. Any
// storage fault is logged and swallowed: the caller's response is
// already computed and must not change.
func (e *Engine) persist(ctx context.Context, sessionID string, res Result) {
	ctx, cancel := context.WithTimeout(ctx, e.persistTimeout)
	defer cancel()

	snap := session.Snapshot{CurrentID: res.NextID, Done: res.Done}

	if prev, err := e.ledger.SnapshotRead(ctx, sessionID); err == nil && prev != nil {
		snap.Briefing = prev.Briefing
	}
	history, err := e.ledger.ReadAll(ctx, sessionID)
	if err != nil {
		e.log.Warn().Err(err).Str("session_id", sessionID).Msg("history read failed during snapshot")
	}
	snap.History = history

	if err := e.ledger.SnapshotUpsert(ctx, sessionID, snap); err != nil {
		e.log.Warn().Err(err).Str("session_id", sessionID).Msg("snapshot upsert failed")
	}
}

// Transcript renders the session's briefing document. The persisted
// snapshot's history is preferred over transient entries; the rendered
// document is written back into the snapshot on a best-effort basis.
func (e *Engine) Transcript(ctx context.Context, sessionID string) (string, error) {
	rctx, cancel := context.WithTimeout(ctx, e.persistTimeout)
	snap, err := e.ledger.SnapshotRead(rctx, sessionID)
	cancel()
	if err != nil {
		e.log.Warn().Err(err).Str("session_id", sessionID).Msg("snapshot read failed, using transient history")
		snap = nil
	}

	var entries []session.Entry
	if snap != nil && len(snap.History) > 0 {
		entries = snap.History
	} else {
		entries, err = e.ledger.ReadAll(ctx, sessionID)
		if err != nil {
			e.log.Warn().Err(err).Str("session_id", sessionID).Msg("history read failed, rendering empty briefing")
			entries = nil
		}
	}

	doc, err := e.renderer.Render(sessionID, entries)
	if err != nil {
		return "", fmt.Errorf("rendering briefing for session %s: %w", sessionID, err)
	}

	upsert := session.Snapshot{Briefing: doc, History: entries}
	if snap != nil {
		upsert.CurrentID = snap.CurrentID
		upsert.Done = snap.Done
	}
	wctx, cancel := context.WithTimeout(ctx, e.persistTimeout)
	defer cancel()
	if err := e.ledger.SnapshotUpsert(wctx, sessionID, upsert); err != nil {
		e.log.Warn().Err(err).Str("session_id", sessionID).Msg("briefing upsert failed")
	}

	return doc, nil
}

// Reset clears the session's history and snapshot.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, e.persistTimeout)
	defer cancel()
	if err := e.ledger.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("resetting session %s: %w", sessionID, err)
	}
	return nil
}
