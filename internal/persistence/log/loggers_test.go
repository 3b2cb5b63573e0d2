package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"voxelminer.ai/internal/protocol"
)

func TestTraceLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTraceLogger(dir)
	events := []protocol.TraceEvent{
		{Tick: 1, Type: protocol.EventSessionStart, SessionID: "s1"},
		{Tick: 7, Type: protocol.EventTarget, SessionID: "s1", Pos: protocol.PosOf(1, 2, 3), Cost: protocol.CostOf(12.5), Distance: 3},
		{Tick: 9, Type: protocol.EventTaskFail, SessionID: "s1", Kind: "PLACE_TORCH", Code: protocol.ErrSelect},
	}
	for _, ev := range events {
		if err := l.WriteEvent(ev); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	path := l.Path()
	if filepath.Dir(path) != filepath.Join(dir, "trace") {
		t.Fatalf("unexpected trace path %s", path)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadTrace(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(got))
	}
	if got[1].Pos == nil || *got[1].Pos != [3]int{1, 2, 3} || got[1].Cost == nil || *got[1].Cost != 12.5 {
		t.Fatalf("target event mismatch: %+v", got[1])
	}
	if got[2].Code != protocol.ErrSelect {
		t.Fatalf("expected E_SELECT, got %q", got[2].Code)
	}
}

func TestWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "trace")
	at := time.Date(2024, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return at }
	if err := w.Write(map[string]int{"a": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	at = at.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"a": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, name := range []string{"trace-2024-03-01-10.jsonl.zst", "trace-2024-03-01-11.jsonl.zst"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}
