// Package worldtest drives a full mining session (sandbox, agent and every trace
// sink) for integration tests.
package worldtest

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"voxelminer.ai/internal/metrics"
	"voxelminer.ai/internal/persistence/indexdb"
	persistlog "voxelminer.ai/internal/persistence/log"
	"voxelminer.ai/internal/protocol"
	"voxelminer.ai/internal/sim/agent"
	"voxelminer.ai/internal/sim/catalogs"
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/tuning"
	"voxelminer.ai/internal/sim/world/logic/movement"
	"voxelminer.ai/internal/sim/world/sandbox"
	"voxelminer.ai/internal/transport/observer"
)

// Spawn is where every harness body starts.
var Spawn = tasks.Vec3i{Y: 12}

type Options struct {
	Seed       int64
	Settings   map[string]float64
	Inventory  []sandbox.Stack
	TorchEvery int
	// Ores are placed into a solid stone cube around Spawn.
	Ores map[tasks.Vec3i]string
}

// Harness owns one session and its sinks. Sinks write under t.TempDir().
type Harness struct {
	T        *testing.T
	Cats     *catalogs.Catalogs
	World    *sandbox.World
	Agent    *agent.Agent
	Session  *agent.Session
	Trace    *persistlog.TraceLogger
	TraceDir string
	Index    *indexdb.SQLiteIndex
	Hub      *observer.Hub
	Metrics  *metrics.Collectors
	Events   []protocol.TraceEvent
}

func NewHarness(t *testing.T, opts Options) *Harness {
	t.Helper()
	cats, err := catalogs.LoadDefault()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w, err := sandbox.New(sandbox.Config{
		Catalogs:  cats,
		Gen:       sandbox.GenFromCatalog(cats, opts.Seed, 48, 32, 1000),
		Spawn:     Spawn,
		Inventory: opts.Inventory,
	})
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	set := func(p tasks.Vec3i, name string) { w.Chunks().SetBlock(p.X, p.Y, p.Z, cats.Blocks.MustID(name)) }
	// Wide enough that generated ore outside stays beyond the search distance.
	for x := -12; x <= 12; x++ {
		for y := 1; y <= 26; y++ {
			for z := -12; z <= 12; z++ {
				set(tasks.Vec3i{X: x, Y: y, Z: z}, "voxel:stone")
			}
		}
	}
	set(Spawn, catalogs.AirName)
	set(Spawn.Up(1), catalogs.AirName)
	for p, name := range opts.Ores {
		set(p, name)
	}

	dir := t.TempDir()
	h := &Harness{T: t, Cats: cats, World: w}
	h.Session = agent.NewSession(cats, tuning.NewSettings(opts.Settings), w, opts.Seed)
	h.TraceDir = filepath.Join(dir, "sessions", h.Session.ID)
	h.Trace = persistlog.NewTraceLogger(h.TraceDir)
	h.Index, err = indexdb.OpenSQLite(filepath.Join(dir, "index.sqlite"), nil)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	h.Hub = observer.NewHub(1 << 14)
	h.Metrics = metrics.New()
	t.Cleanup(func() {
		_ = h.Index.Close()
		_ = h.Trace.Close()
	})

	recs := &agent.Recorders{}
	recs.Add(h.Trace)
	recs.Add(h.Index)
	recs.Add(h.Hub)
	recs.Add(h.Metrics)
	recs.Add(capture{h})
	h.Agent = agent.New(w, h.Session, agent.Params{
		Search:     movement.SearchParams{MaxDistance: 32, MaxNodes: 20000},
		TorchEvery: opts.TorchEvery,
		Recorder:   recs,
	})
	w.OnBlockChange(func(c sandbox.BlockChange) { h.Agent.RecordBlockChange(c.Pos, c.From, c.To) })
	h.Agent.Start()
	return h
}

type capture struct{ h *Harness }

func (c capture) WriteEvent(ev protocol.TraceEvent) error {
	c.h.Events = append(c.h.Events, ev)
	return nil
}

// RunUntilIdle ticks until a planning cycle finds no target, then ends the session
// and flushes every sink.
func (h *Harness) RunUntilIdle(limit int) {
	h.T.Helper()
	for i := 0; i < limit; i++ {
		err := h.Agent.Tick(context.Background())
		if errors.Is(err, movement.ErrNoTarget) {
			h.finish("idle")
			return
		}
		if err != nil {
			h.T.Fatalf("tick %d: %v", i, err)
		}
	}
	h.T.Fatalf("agent still busy after %d ticks", limit)
}

func (h *Harness) finish(reason string) {
	h.Agent.Stop(reason)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Index.Flush(ctx); err != nil {
		h.T.Fatalf("index flush: %v", err)
	}
	if err := h.Trace.Close(); err != nil {
		h.T.Fatalf("trace close: %v", err)
	}
}

// ReadTrace decodes every trace file the session wrote, oldest first.
func (h *Harness) ReadTrace() []protocol.TraceEvent {
	h.T.Helper()
	files, err := filepath.Glob(filepath.Join(h.TraceDir, "trace", "*.jsonl.zst"))
	if err != nil || len(files) == 0 {
		h.T.Fatalf("no trace files under %s: %v", h.TraceDir, err)
	}
	sort.Strings(files)
	var out []protocol.TraceEvent
	for _, f := range files {
		evs, err := persistlog.ReadTrace(f)
		if err != nil {
			h.T.Fatalf("read trace: %v", err)
		}
		out = append(out, evs...)
	}
	return out
}

func (h *Harness) OfType(typ string) []protocol.TraceEvent {
	var out []protocol.TraceEvent
	for _, ev := range h.Events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
