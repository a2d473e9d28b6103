package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteLedger is the default persistent backend. History lives in an
// autoincrement-ordered entries table; the snapshot is one row per
// session with the full history denormalized as JSON (the snapshot is
// the source of truth across restarts, the entries table backs
// Append/ReadAll ordering).
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (or creates) the database under dataDir with
// WAL mode and runs migrations.
func NewSQLiteLedger(dataDir string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sessions.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("session: pragma %q: %w", p, err)
		}
	}

	l := &SQLiteLedger{db: db}
	if err := l.migrate(); err != nil {
		return nil, fmt.Errorf("session: migration: %w", err)
	}
	return l, nil
}

// Close closes the underlying database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func (l *SQLiteLedger) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			current_id TEXT NOT NULL DEFAULT '',
			done       INTEGER NOT NULL DEFAULT 0,
			history    TEXT NOT NULL DEFAULT '[]',
			briefing   TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			node_id    TEXT NOT NULL,
			prompt     TEXT NOT NULL,
			answer     TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_entries_session ON entries(session_id, id);
		CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Append implements Ledger.
func (l *SQLiteLedger) Append(ctx context.Context, sessionID string, entry Entry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO entries (session_id, node_id, prompt, answer, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, entry.NodeID, entry.Prompt, entry.Answer, now(),
	)
	if err != nil {
		return fmt.Errorf("session: append: %w", err)
	}
	return nil
}

// ReadAll implements Ledger.
func (l *SQLiteLedger) ReadAll(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT node_id, prompt, answer FROM entries WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("session: read history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.NodeID, &e.Prompt, &e.Answer); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear implements Ledger.
func (l *SQLiteLedger) Clear(ctx context.Context, sessionID string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM entries WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("session: clear entries: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("session: clear snapshot: %w", err)
	}
	return nil
}

// SnapshotUpsert implements Ledger.
func (l *SQLiteLedger) SnapshotUpsert(ctx context.Context, sessionID string, snap Snapshot) error {
	history, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("session: marshal history: %w", err)
	}

	ts := now()
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, created_at, updated_at, current_id, done, history, briefing)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			current_id = excluded.current_id,
			done       = excluded.done,
			history    = excluded.history,
			briefing   = excluded.briefing`,
		sessionID, ts, ts, snap.CurrentID, boolToInt(snap.Done), string(history), snap.Briefing,
	)
	if err != nil {
		return fmt.Errorf("session: snapshot upsert: %w", err)
	}
	return nil
}

// SnapshotRead implements Ledger.
func (l *SQLiteLedger) SnapshotRead(ctx context.Context, sessionID string) (*Snapshot, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT session_id, created_at, updated_at, current_id, done, history, briefing
		 FROM sessions WHERE session_id = ?`,
		sessionID,
	)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: snapshot read: %w", err)
	}
	return snap, nil
}

// RecentSessions implements Lister.
func (l *SQLiteLedger) RecentSessions(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT session_id, created_at, updated_at, current_id, done, history, briefing
		 FROM sessions ORDER BY updated_at DESC, session_id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("session: list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var done int
	var history string
	if err := row.Scan(&snap.SessionID, &snap.CreatedAt, &snap.UpdatedAt, &snap.CurrentID, &done, &history, &snap.Briefing); err != nil {
		return nil, err
	}
	snap.Done = done != 0
	if err := json.Unmarshal([]byte(history), &snap.History); err != nil {
		return nil, fmt.Errorf("session: corrupt history for %q: %w", snap.SessionID, err)
	}
	return &snap, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
