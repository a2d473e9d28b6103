package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dmcandrade/briefing/internal/graph"
	"github.com/dmcandrade/briefing/internal/session"
	"github.com/dmcandrade/briefing/internal/transcript"
)

func newTestEngine(t *testing.T, g graph.Graph, ledger session.Ledger) *Engine {
	t.Helper()
	r, err := transcript.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return New(g, ledger, r, zerolog.Nop(), 0)
}

func mustLoadGraph(t *testing.T, src string) graph.Graph {
	t.Helper()
	g, err := graph.Load([]byte(src))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return g
}

const branchGraph = `[
	{"id": "start", "text": "Q1?", "branches": {"sim": "b", "*": "c"}, "next": "d"},
	{"id": "b", "text": "B?"},
	{"id": "c", "text": "C?"},
	{"id": "d", "text": "D?"},
	{"id": "exact_only", "text": "E?", "branches": {"sim": "b"}, "next": "d"}
]`

func TestAdvanceStartsWhenCurrentAbsent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), session.NewMemoryLedger())

	for _, current := range []string{"", "null", "None", "  NULL  "} {
		res, err := e.Advance(ctx, "s1", current, "ignored answer")
		if err != nil {
			t.Fatalf("Advance(%q) failed: %v", current, err)
		}
		if res.NextID != graph.StartID || res.Done {
			t.Errorf("Advance(%q) = %+v, want next_id=%q done=false", current, res, graph.StartID)
		}
		if res.Message != "Q1?" {
			t.Errorf("Advance(%q) message = %q, want start prompt", current, res.Message)
		}
	}

	// An absent current id never appends history, even with an answer.
	entries, err := e.ledger.ReadAll(ctx, "s1")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("history has %d entries, want 0", len(entries))
	}
}

func TestAdvanceBranchPrecedence(t *testing.T) {
	ctx := context.Background()
	g := mustLoadGraph(t, branchGraph)

	tests := []struct {
		name    string
		current string
		answer  string
		want    string
	}{
		{"exact branch wins", "start", "sim", "b"},
		{"synonym resolves to exact branch", "start", "YES", "b"},
		{"wildcard catches unmatched answer", "start", "talvez", "c"},
		{"empty answer skips branches, uses fallback", "start", "", "d"},
		{"no wildcard falls through to fallback", "exact_only", "nao", "d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, g, session.NewMemoryLedger())
			res, err := e.Advance(ctx, "s1", tt.current, tt.answer)
			if err != nil {
				t.Fatalf("Advance failed: %v", err)
			}
			if res.NextID != tt.want {
				t.Errorf("next_id = %q, want %q", res.NextID, tt.want)
			}
			if res.Done {
				t.Error("done = true, want false")
			}
		})
	}
}

func TestAdvanceResolvesSentinelWhenNothingMatches(t *testing.T) {
	ctx := context.Background()
	g := mustLoadGraph(t, `[
		{"id": "start", "text": "Q1?", "next": "leaf"},
		{"id": "leaf", "text": "Last?"}
	]`)
	e := newTestEngine(t, g, session.NewMemoryLedger())

	res, err := e.Advance(ctx, "s1", "leaf", "qualquer")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if res.NextID != graph.EndID || !res.Done {
		t.Errorf("Advance = %+v, want next_id=%q done=true", res, graph.EndID)
	}
	if res.Message != msgFinished {
		t.Errorf("message = %q, want %q", res.Message, msgFinished)
	}
}

func TestAdvanceInvalidStep(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), session.NewMemoryLedger())

	res, err := e.Advance(ctx, "s1", "ghost", "sim")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if !res.Done || res.NextID != "" {
		t.Errorf("Advance = %+v, want done=true next_id empty", res)
	}
	if res.Message != msgInvalidStep {
		t.Errorf("message = %q, want %q", res.Message, msgInvalidStep)
	}
}

func TestAdvancePastSentinelIsInvalidStep(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), session.NewMemoryLedger())

	// The sentinel is never a node, so a caller replaying it after the
	// interview finished gets the invalid-step terminal response.
	res, err := e.Advance(ctx, "s1", graph.EndID, "sim")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if !res.Done || res.NextID != "" || res.Message != msgInvalidStep {
		t.Errorf("Advance past sentinel = %+v, want invalid-step terminal response", res)
	}
}

func TestAdvanceMisconfiguredFlow(t *testing.T) {
	ctx := context.Background()
	g := mustLoadGraph(t, `[
		{"id": "start", "text": "Q1?", "next": "ghost"}
	]`)
	e := newTestEngine(t, g, session.NewMemoryLedger())

	res, err := e.Advance(ctx, "s1", "start", "qualquer")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if !res.Done || res.NextID != "" {
		t.Errorf("Advance = %+v, want done=true next_id empty", res)
	}
	if res.Message != msgMisconfigured {
		t.Errorf("message = %q, want %q", res.Message, msgMisconfigured)
	}
}

func TestAdvanceRecordsRawAnswer(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), session.NewMemoryLedger())

	res, err := e.Advance(ctx, "s1", "start", "  SIM  ")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if res.NextID != "b" {
		t.Errorf("next_id = %q, want branch resolved from normalized answer", res.NextID)
	}

	entries, err := e.ledger.ReadAll(ctx, "s1")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("history has %d entries, want 1", len(entries))
	}
	if entries[0].Answer != "  SIM  " {
		t.Errorf("recorded answer = %q, want the user's literal wording", entries[0].Answer)
	}
	if entries[0].NodeID != "start" || entries[0].Prompt != "Q1?" {
		t.Errorf("recorded entry = %+v, want node id and original prompt", entries[0])
	}
}

func TestAdvanceNullAnswerAppendsNothing(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), session.NewMemoryLedger())

	for _, ans := range []string{"", "null", "None", "   "} {
		if _, err := e.Advance(ctx, "s1", "start", ans); err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
	}

	entries, err := e.ledger.ReadAll(ctx, "s1")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("history has %d entries, want 0 for null-literal answers", len(entries))
	}
}

func TestAdvanceEndToEnd(t *testing.T) {
	ctx := context.Background()
	g := mustLoadGraph(t, `[
		{"id": "start", "text": "Q1?", "branches": {"sim": "q2", "nao": "fim"}},
		{"id": "q2", "text": "Q2?", "next": "fim"}
	]`)
	ledger := session.NewMemoryLedger()
	e := newTestEngine(t, g, ledger)

	res, err := e.Advance(ctx, "s1", "", "")
	if err != nil {
		t.Fatalf("call 1 failed: %v", err)
	}
	if res.Message != "Q1?" || res.NextID != "start" || res.Done {
		t.Fatalf("call 1 = %+v", res)
	}

	res, err = e.Advance(ctx, "s1", "start", "sim")
	if err != nil {
		t.Fatalf("call 2 failed: %v", err)
	}
	if res.Message != "Q2?" || res.NextID != "q2" || res.Done {
		t.Fatalf("call 2 = %+v", res)
	}

	res, err = e.Advance(ctx, "s1", "q2", "qualquer")
	if err != nil {
		t.Fatalf("call 3 failed: %v", err)
	}
	if res.Message != msgFinished || res.NextID != graph.EndID || !res.Done {
		t.Fatalf("call 3 = %+v", res)
	}

	entries, err := ledger.ReadAll(ctx, "s1")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	want := []session.Entry{
		{NodeID: "start", Prompt: "Q1?", Answer: "sim"},
		{NodeID: "q2", Prompt: "Q2?", Answer: "qualquer"},
	}
	if len(entries) != len(want) {
		t.Fatalf("history = %+v, want %+v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}

	snap, err := ledger.SnapshotRead(ctx, "s1")
	if err != nil {
		t.Fatalf("SnapshotRead failed: %v", err)
	}
	if snap == nil {
		t.Fatal("snapshot missing after advance")
	}
	if snap.CurrentID != graph.EndID || !snap.Done {
		t.Errorf("snapshot = %+v, want pointer at sentinel with done=true", snap)
	}
	if len(snap.History) != 2 {
		t.Errorf("snapshot history has %d entries, want 2", len(snap.History))
	}
}

// faultyLedger fails every operation. It stands in for a storage
// backend that is down.
type faultyLedger struct{}

var errStorageDown = errors.New("storage down")

func (faultyLedger) Append(context.Context, string, session.Entry) error { return errStorageDown }
func (faultyLedger) ReadAll(context.Context, string) ([]session.Entry, error) {
	return nil, errStorageDown
}
func (faultyLedger) Clear(context.Context, string) error { return errStorageDown }
func (faultyLedger) SnapshotUpsert(context.Context, string, session.Snapshot) error {
	return errStorageDown
}
func (faultyLedger) SnapshotRead(context.Context, string) (*session.Snapshot, error) {
	return nil, errStorageDown
}

func TestAdvanceSwallowsPersistenceFaults(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), faultyLedger{})

	res, err := e.Advance(ctx, "s1", "start", "sim")
	if err != nil {
		t.Fatalf("Advance must not surface storage faults, got: %v", err)
	}
	if res.Message != "B?" || res.NextID != "b" || res.Done {
		t.Errorf("Advance = %+v, want the computed response unaltered", res)
	}
}

func TestTranscriptSwallowsPersistenceFaults(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), faultyLedger{})

	doc, err := e.Transcript(ctx, "s1")
	if err != nil {
		t.Fatalf("Transcript must not surface storage faults, got: %v", err)
	}
	if !strings.Contains(doc, "_Nenhuma resposta registrada nesta sessão._") {
		t.Errorf("unreadable history must render as empty, got:\n%s", doc)
	}
}

func TestTranscriptPrefersSnapshotHistory(t *testing.T) {
	ctx := context.Background()
	ledger := session.NewMemoryLedger()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), ledger)

	// Transient entries and a persisted snapshot disagree; the
	// snapshot wins.
	if err := ledger.Append(ctx, "s1", session.Entry{NodeID: "start", Prompt: "Q1?", Answer: "transient"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	err := ledger.SnapshotUpsert(ctx, "s1", session.Snapshot{
		CurrentID: "b",
		History:   []session.Entry{{NodeID: "start", Prompt: "Q1?", Answer: "persisted"}},
	})
	if err != nil {
		t.Fatalf("SnapshotUpsert failed: %v", err)
	}

	doc, err := e.Transcript(ctx, "s1")
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if !strings.Contains(doc, "persisted") || strings.Contains(doc, "transient") {
		t.Errorf("briefing must render the persisted history:\n%s", doc)
	}

	// The rendered document is written back into the snapshot.
	snap, err := ledger.SnapshotRead(ctx, "s1")
	if err != nil {
		t.Fatalf("SnapshotRead failed: %v", err)
	}
	if snap.Briefing != doc {
		t.Error("snapshot briefing not updated with the rendered document")
	}
	if snap.CurrentID != "b" {
		t.Errorf("snapshot pointer = %q, want preserved", snap.CurrentID)
	}
}

func TestTranscriptFallsBackToTransientHistory(t *testing.T) {
	ctx := context.Background()
	ledger := session.NewMemoryLedger()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), ledger)

	if err := ledger.Append(ctx, "s1", session.Entry{NodeID: "start", Prompt: "Q1?", Answer: "sim"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	doc, err := e.Transcript(ctx, "s1")
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if !strings.Contains(doc, "### 1. Q1?") || !strings.Contains(doc, "- **Resposta:** sim") {
		t.Errorf("briefing missing transient history:\n%s", doc)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	ledger := session.NewMemoryLedger()
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), ledger)

	if _, err := e.Advance(ctx, "s1", "", ""); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if _, err := e.Advance(ctx, "s1", "start", "sim"); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	if err := e.Reset(ctx, "s1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	entries, err := ledger.ReadAll(ctx, "s1")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("history has %d entries after reset, want 0", len(entries))
	}
	snap, err := ledger.SnapshotRead(ctx, "s1")
	if err != nil {
		t.Fatalf("SnapshotRead failed: %v", err)
	}
	if snap != nil {
		t.Error("snapshot survived reset")
	}
}

func TestResetSurfacesStorageFaults(t *testing.T) {
	e := newTestEngine(t, mustLoadGraph(t, branchGraph), faultyLedger{})
	if err := e.Reset(context.Background(), "s1"); err == nil {
		t.Error("Reset must report a failed clear")
	}
}

func TestAdvanceStartNodeMissing(t *testing.T) {
	// Loaded graphs always carry a start node; a hand-built one may
	// not, and the engine must refuse rather than guess.
	g := graph.Graph{"lone": {ID: "lone", Text: "Q?"}}
	e := newTestEngine(t, g, session.NewMemoryLedger())

	_, err := e.Advance(context.Background(), "s1", "", "")
	if !errors.Is(err, ErrStartNodeMissing) {
		t.Errorf("err = %v, want ErrStartNodeMissing", err)
	}
}
