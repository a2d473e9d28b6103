// Package graph holds the immutable question graph that drives an interview.
//
// The source format is an ordered JSON list of node records. Nodes are loaded
// once at startup into an id-keyed map and never mutated afterwards, so a
// Graph can be shared read-only across all sessions without locking.
//
// Design principles, same as the rest of the codebase:
// - SRP: node definition, source parsing, and validation live here; traversal
//   logic belongs to the interview engine
// - fail fast: authoring defects that can be caught at load time (duplicate
//   ids, missing start node, dangling empty branch targets) abort loading
//   instead of surfacing per-request
package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmcandrade/briefing/internal/answer"
)

const (
	// StartID is the distinguished entry node every graph must define.
	StartID = "start"
	// EndID is the end-of-flow sentinel. It is never a node: resolving a
	// next id of "fim" terminates the interview without a lookup.
	EndID = "fim"
)

// Node is a single question in the interview graph.
type Node struct {
	// ID is the stable author-assigned key into the graph.
	ID string `json:"id"`
	// Text is the prompt shown to the user when this node is reached.
	Text string `json:"text"`
	// Next is the unconditional fallback pointer, used when no branch
	// matches or no branch table exists.
	Next string `json:"next,omitempty"`
	// Branches maps a canonical answer token to the next node id. The
	// wildcard keys "*" and "default" act as catch-alls.
	Branches map[string]string `json:"branches,omitempty"`
}

// IsTerminal reports whether reaching this node ends the interview:
// a node with neither branches nor a fallback pointer goes nowhere.
func (n Node) IsTerminal() bool {
	return n.Next == "" && len(n.Branches) == 0
}

// nodeSource mirrors the on-disk record. The historical alias "branch"
// for "branches" is tolerated; "branches" wins when both are present.
type nodeSource struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Next     string            `json:"next"`
	Branches map[string]string `json:"branches"`
	Branch   map[string]string `json:"branch"`
}

// Graph is the id-keyed node mapping. Treat it as read-only after Load.
type Graph map[string]Node

// Load parses an ordered list of node records and builds the graph.
//
// Load rejects, with an error naming the offending node:
//   - records with an empty id
//   - a record claiming the reserved sentinel id
//   - duplicate ids (the historical behavior silently kept the last
//     record, which hid authoring mistakes)
//   - branch entries with an empty target
//   - a graph without the distinguished start node
//
// Branch keys are canonicalized on the way in, so a table authored with
// "não" or "yes" matches the tokens the engine actually looks up.
func Load(data []byte) (Graph, error) {
	var records []nodeSource
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing question graph: %w", err)
	}

	g := make(Graph, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("question graph: record %d has no id", i)
		}
		if rec.ID == EndID {
			return nil, fmt.Errorf("question graph: %q is the end-of-flow sentinel and cannot be a node", EndID)
		}
		if _, exists := g[rec.ID]; exists {
			return nil, fmt.Errorf("question graph: duplicate node id %q", rec.ID)
		}

		branches := rec.Branches
		if branches == nil {
			branches = rec.Branch
		}

		node := Node{ID: rec.ID, Text: rec.Text, Next: rec.Next}
		if len(branches) > 0 {
			node.Branches = make(map[string]string, len(branches))
			for key, target := range branches {
				if target == "" {
					return nil, fmt.Errorf("question graph: node %q branch %q has an empty target", rec.ID, key)
				}
				node.Branches[canonicalBranchKey(key)] = target
			}
		}
		g[rec.ID] = node
	}

	if _, ok := g[StartID]; !ok {
		return nil, fmt.Errorf("question graph: missing start node %q", StartID)
	}

	return g, nil
}

// LoadFile reads and parses a question graph from disk.
func LoadFile(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question graph: %w", err)
	}
	return Load(data)
}

// canonicalBranchKey folds an authored branch key the same way the
// engine folds answers. Wildcards pass through untouched.
func canonicalBranchKey(key string) string {
	if key == "*" || key == "default" {
		return key
	}
	return answer.Canonical(key)
}
