package agent

import (
	"context"
	"errors"
	"testing"

	"voxelminer.ai/internal/protocol"
	"voxelminer.ai/internal/sim/catalogs"
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/tuning"
	"voxelminer.ai/internal/sim/world/feature/work/runtime"
	"voxelminer.ai/internal/sim/world/logic/blockcache"
	"voxelminer.ai/internal/sim/world/logic/movement"
	"voxelminer.ai/internal/sim/world/sandbox"
)

type captured struct{ events []protocol.TraceEvent }

func (c *captured) WriteEvent(ev protocol.TraceEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func (c *captured) ofType(typ string) []protocol.TraceEvent {
	var out []protocol.TraceEvent
	for _, ev := range c.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

var spawn = tasks.Vec3i{Y: 12}

// newPit carves a stone cube with a two-block coal seam two steps east of spawn.
func newPit(t *testing.T, inv ...sandbox.Stack) (*sandbox.World, *catalogs.Catalogs) {
	t.Helper()
	cat, err := catalogs.LoadDefault()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w, err := sandbox.New(sandbox.Config{
		Catalogs:  cat,
		Gen:       sandbox.GenFromCatalog(cat, 3, 48, 32, 1000),
		Spawn:     spawn,
		Inventory: inv,
	})
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	set := func(p tasks.Vec3i, name string) {
		w.Chunks().SetBlock(p.X, p.Y, p.Z, cat.Blocks.MustID(name))
	}
	for x := -6; x <= 6; x++ {
		for y := 6; y <= 18; y++ {
			for z := -6; z <= 6; z++ {
				set(tasks.Vec3i{X: x, Y: y, Z: z}, "voxel:stone")
			}
		}
	}
	set(spawn, catalogs.AirName)
	set(spawn.Up(1), catalogs.AirName)
	set(tasks.Vec3i{X: 2, Y: 12}, "voxel:coal_ore")
	set(tasks.Vec3i{X: 2, Y: 13}, "voxel:coal_ore")
	return w, cat
}

func coalSettings() *tuning.Settings {
	return tuning.NewSettings(map[string]float64{
		"mine_points_coal_ore": 5,
		"mine_factor_coal_ore": 1,
	})
}

func newTestAgent(t *testing.T, w *sandbox.World, cat *catalogs.Catalogs, torchEvery, timeout int) (*Agent, *captured) {
	t.Helper()
	rec := &captured{}
	a := New(w, NewSession(cat, coalSettings(), w, 1), Params{
		Search:           movement.SearchParams{MaxDistance: 12, MaxNodes: 5000},
		TaskTimeoutTicks: timeout,
		TorchEvery:       torchEvery,
		Recorder:         rec,
	})
	w.OnBlockChange(func(c sandbox.BlockChange) { a.RecordBlockChange(c.Pos, c.From, c.To) })
	return a, rec
}

// runUntilIdle ticks until a planning cycle finds nothing left to mine.
func runUntilIdle(t *testing.T, a *Agent, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		err := a.Tick(context.Background())
		if errors.Is(err, movement.ErrNoTarget) {
			return
		}
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	t.Fatalf("agent still busy after %d ticks", limit)
}

func TestAgentMinesDoubleTargetAndPlacesTorch(t *testing.T) {
	w, cat := newPit(t,
		sandbox.Stack{Item: "voxel:stone_pickaxe", Count: 1},
		sandbox.Stack{Item: "voxel:torch", Count: 4},
	)
	a, rec := newTestAgent(t, w, cat, 1, 200)
	a.Start()
	runUntilIdle(t, a, 300)

	targets := rec.ofType(protocol.EventTarget)
	if len(targets) != 1 {
		t.Fatalf("expected one target, got %d", len(targets))
	}
	if got := *targets[0].Pos; got != [3]int{2, 12, 0} {
		t.Fatalf("expected the seam bottom as target, got %v", got)
	}
	// distance 6 (5 through stone, 1 into free ore) + 5 max points - 5 points - 1 double bonus
	if got := *targets[0].Cost; got != 5 {
		t.Fatalf("expected cost 5, got %v", got)
	}
	if got := w.Count("voxel:coal"); got != 2 {
		t.Fatalf("expected 2 coal, got %d", got)
	}
	if w.Position() != (tasks.Vec3i{X: 2, Y: 12}) {
		t.Fatalf("expected agent at the target, got %v", w.Position())
	}
	if got := w.BlockAt(tasks.Vec3i{X: 2, Y: 12}); got != "voxel:torch" {
		t.Fatalf("expected a torch at the target, got %s", got)
	}
	if got := w.Count("voxel:torch"); got != 3 {
		t.Fatalf("expected one torch used, got %d left", got)
	}

	done := rec.ofType(protocol.EventTaskDone)
	if len(done) != 2 || done[0].Kind != string(tasks.KindWalk) || done[1].Kind != string(tasks.KindPlaceTorch) {
		t.Fatalf("unexpected outcomes %+v", done)
	}
	if len(rec.ofType(protocol.EventTaskFail)) != 0 {
		t.Fatalf("unexpected failures %+v", rec.ofType(protocol.EventTaskFail))
	}
	if got := len(rec.ofType(protocol.EventBlockChange)); got != 5 {
		t.Fatalf("expected 4 digs and 1 placement, got %d block changes", got)
	}
	if len(rec.ofType(protocol.EventNoTarget)) != 1 {
		t.Fatalf("expected the final cycle to find no target")
	}
	if rec.events[0].Type != protocol.EventSessionStart || rec.events[0].SessionID == "" {
		t.Fatalf("expected session start first, got %+v", rec.events[0])
	}
}

func TestAgentDesyncClearsQueue(t *testing.T) {
	w, cat := newPit(t, sandbox.Stack{Item: "voxel:stone_pickaxe", Count: 1})
	a, rec := newTestAgent(t, w, cat, 1, 200)
	runUntilIdle(t, a, 300)

	fails := rec.ofType(protocol.EventTaskFail)
	if len(fails) != 1 || fails[0].Code != protocol.ErrSelect || fails[0].Kind != string(tasks.KindPlaceTorch) {
		t.Fatalf("expected one torch selection desync, got %+v", fails)
	}
	if a.QueueLen() != 0 {
		t.Fatalf("expected empty queue after desync, got %d", a.QueueLen())
	}
}

func TestAgentTimesOutStuckTask(t *testing.T) {
	w, cat := newPit(t)
	a, rec := newTestAgent(t, w, cat, 0, 1)
	for i := 0; i < 4; i++ {
		if err := a.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	fails := rec.ofType(protocol.EventTaskFail)
	if len(fails) != 1 || fails[0].Code != protocol.ErrTimeout || fails[0].Ticks != 3 {
		t.Fatalf("expected a walk timeout after 3 ticks, got %+v", fails)
	}
	if a.QueueLen() != 0 {
		t.Fatalf("expected queue cleared after timeout")
	}
}

func TestAgentNoTargetIsRecoverable(t *testing.T) {
	w, cat := newPit(t)
	w.Chunks().SetBlock(2, 12, 0, cat.Blocks.MustID("voxel:stone"))
	w.Chunks().SetBlock(2, 13, 0, cat.Blocks.MustID("voxel:stone"))
	a, rec := newTestAgent(t, w, cat, 0, 200)
	for i := 0; i < 2; i++ {
		if err := a.Tick(context.Background()); !errors.Is(err, movement.ErrNoTarget) {
			t.Fatalf("tick %d: expected ErrNoTarget, got %v", i, err)
		}
	}
	if got := len(rec.ofType(protocol.EventNoTarget)); got != 2 {
		t.Fatalf("expected 2 no-target events, got %d", got)
	}
}

func TestAgentUnknownBlockIsRecoverable(t *testing.T) {
	w, cat := newPit(t)
	head := spawn.Up(1)
	w.Chunks().SetBlock(head.X, head.Y, head.Z, 999)
	a, rec := newTestAgent(t, w, cat, 0, 200)

	err := a.Tick(context.Background())
	if !errors.Is(err, movement.ErrNoTarget) || !errors.Is(err, blockcache.ErrInvalidIdentifier) {
		t.Fatalf("expected a recoverable invalid id error, got %v", err)
	}
	noTarget := rec.ofType(protocol.EventNoTarget)
	if len(noTarget) != 1 || noTarget[0].Code != protocol.ErrInvalidID || noTarget[0].Message == "" {
		t.Fatalf("expected one E_INVALID_ID event, got %+v", noTarget)
	}

	w.Chunks().SetBlock(head.X, head.Y, head.Z, cat.Blocks.MustID(catalogs.AirName))
	if err := a.Tick(context.Background()); err != nil {
		t.Fatalf("expected the next cycle to plan, got %v", err)
	}
	if a.Targets() != 1 {
		t.Fatalf("expected a target after the block was cleared, got %d", a.Targets())
	}
}

// brokenTask fails with an error that is not a desync.
type brokenTask struct{}

func (brokenTask) Kind() tasks.Kind                       { return tasks.KindMine }
func (brokenTask) Status(runtime.WorldQuery) tasks.Status { return tasks.StatusActive }
func (brokenTask) Tick(runtime.WorldQuery, runtime.ActionExecutor) error {
	return errors.New("tool snapped")
}
func (brokenTask) TickTimeout(base int) int { return base }
func (brokenTask) String() string           { return "brokenTask" }

func TestAgentTaskErrorIsTracedAsInternal(t *testing.T) {
	w, cat := newPit(t)
	a, rec := newTestAgent(t, w, cat, 0, 200)
	a.Enqueue(brokenTask{})
	if err := a.Tick(context.Background()); err != nil {
		t.Fatalf("expected the failure traced, not returned: %v", err)
	}
	fails := rec.ofType(protocol.EventTaskFail)
	if len(fails) != 1 || fails[0].Code != protocol.ErrInternal || fails[0].Message != "tool snapped" {
		t.Fatalf("expected one E_INTERNAL failure, got %+v", fails)
	}
	if a.QueueLen() != 0 {
		t.Fatalf("expected queue cleared, got %d", a.QueueLen())
	}
}

func TestAgentStopsOnCancelledContext(t *testing.T) {
	w, cat := newPit(t)
	a, _ := newTestAgent(t, w, cat, 0, 200)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Tick(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if a.CurrentTick() != 0 {
		t.Fatalf("expected no tick consumed")
	}
}

type failing struct{}

func (failing) WriteEvent(protocol.TraceEvent) error { return errors.New("disk full") }

func TestRecordersKeepGoing(t *testing.T) {
	var r Recorders
	c := &captured{}
	r.Add(failing{})
	r.Add(nil)
	r.Add(c)
	_ = r.WriteEvent(protocol.TraceEvent{Type: protocol.EventNoTarget})
	if len(r.Sinks) != 2 || len(c.events) != 1 {
		t.Fatalf("expected the second sink to receive the event, sinks=%d got=%d", len(r.Sinks), len(c.events))
	}
}
