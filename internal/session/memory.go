package session

import (
	"context"
	"sort"
	"sync"
)

// MemoryLedger keeps sessions in process memory. It backs tests and
// serves as the degraded fallback when the persistent backend fails to
// initialize — the interview keeps working, durability is lost.
type MemoryLedger struct {
	mu        sync.RWMutex
	entries   map[string][]Entry
	snapshots map[string]Snapshot
}

// NewMemoryLedger creates an empty in-process ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		entries:   make(map[string][]Entry),
		snapshots: make(map[string]Snapshot),
	}
}

// Append implements Ledger.
func (m *MemoryLedger) Append(ctx context.Context, sessionID string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = append(m.entries[sessionID], entry)
	return nil
}

// ReadAll implements Ledger.
func (m *MemoryLedger) ReadAll(ctx context.Context, sessionID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.entries[sessionID]
	out := make([]Entry, len(stored))
	copy(out, stored)
	return out, nil
}

// Clear implements Ledger.
func (m *MemoryLedger) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	delete(m.snapshots, sessionID)
	return nil
}

// SnapshotUpsert implements Ledger.
func (m *MemoryLedger) SnapshotUpsert(ctx context.Context, sessionID string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap.SessionID = sessionID
	snap.UpdatedAt = now()
	if prev, ok := m.snapshots[sessionID]; ok {
		snap.CreatedAt = prev.CreatedAt
	} else {
		snap.CreatedAt = snap.UpdatedAt
	}

	snap.History = append([]Entry(nil), snap.History...)
	m.snapshots[sessionID] = snap
	return nil
}

// SnapshotRead implements Ledger.
func (m *MemoryLedger) SnapshotRead(ctx context.Context, sessionID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[sessionID]
	if !ok {
		return nil, nil
	}
	snap.History = append([]Entry(nil), snap.History...)
	return &snap, nil
}

// RecentSessions implements Lister.
func (m *MemoryLedger) RecentSessions(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		snap.History = append([]Entry(nil), snap.History...)
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].SessionID < out[j].SessionID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
