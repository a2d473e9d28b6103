// Package session persists per-interview state.
//
// Each session is an append-only history of answered questions plus a
// last-write-wins snapshot of where the interview currently stands. The
// engine depends only on the five-operation Ledger interface; the concrete
// backend (SQLite, Redis, or in-process memory) is chosen at wiring time.
package session

import (
	"context"
	"time"
)

// Entry is one answered question: the node that asked it, its prompt
// text, and the user's literal, unnormalized answer.
type Entry struct {
	NodeID string `json:"node_id"`
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// Snapshot is the persisted summary of a session: current pointer,
// completion flag, full history, and the last rendered briefing.
// Upserts are last-write-wins on UpdatedAt — there is no versioning.
type Snapshot struct {
	SessionID string  `json:"session_id"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	CurrentID string  `json:"current_id"`
	Done      bool    `json:"done"`
	History   []Entry `json:"history"`
	Briefing  string  `json:"briefing,omitempty"`
}

// Ledger is the persistence contract the interview engine drives.
//
// Ordering guarantee: ReadAll returns entries in the exact order Append
// was called for that session, never interleaved with other sessions.
// Concurrent writers to the SAME session are out of scope — callers are
// expected to serialize per-session mutation.
type Ledger interface {
	// Append records one answered question at the end of the session's
	// history. The session is created implicitly on first append.
	Append(ctx context.Context, sessionID string, entry Entry) error

	// ReadAll returns the session's history in append order. A session
	// that was never written to yields an empty slice, not an error.
	ReadAll(ctx context.Context, sessionID string) ([]Entry, error)

	// Clear removes the session's history and snapshot.
	Clear(ctx context.Context, sessionID string) error

	// SnapshotUpsert writes the session snapshot, creating it on first
	// write and overwriting on subsequent ones (CreatedAt is preserved,
	// UpdatedAt always advances).
	SnapshotUpsert(ctx context.Context, sessionID string, snap Snapshot) error

	// SnapshotRead returns the persisted snapshot, or nil (not an
	// error) when the session has never been snapshotted.
	SnapshotRead(ctx context.Context, sessionID string) (*Snapshot, error)
}

// Lister is an optional capability for backends that can enumerate
// sessions. The engine never needs it; the sessions tool does.
type Lister interface {
	// RecentSessions returns up to limit snapshots ordered by
	// UpdatedAt, newest first.
	RecentSessions(ctx context.Context, limit int) ([]Snapshot, error)
}

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// now returns the ledger's wall-clock timestamp format (UTC RFC3339).
func now() string {
	return timeNow().UTC().Format(time.RFC3339)
}
