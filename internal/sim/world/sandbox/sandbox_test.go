package sandbox

import (
	"testing"

	"voxelminer.ai/internal/sim/catalogs"
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/world/feature/work/runtime"
)

var spawn = tasks.Vec3i{Y: 12}

// newTestWorld returns a body standing in a two-block hole carved in solid stone.
func newTestWorld(t *testing.T, inv ...Stack) *World {
	t.Helper()
	cat, err := catalogs.LoadDefault()
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	w, err := New(Config{
		Catalogs:  cat,
		Gen:       GenFromCatalog(cat, 1, 32, 32, 1000),
		Spawn:     spawn,
		Inventory: inv,
	})
	if err != nil {
		t.Fatalf("new sandbox: %v", err)
	}
	for x := -4; x <= 4; x++ {
		for y := 8; y <= 18; y++ {
			for z := -4; z <= 4; z++ {
				set(t, w, tasks.Vec3i{X: x, Y: y, Z: z}, "voxel:stone")
			}
		}
	}
	set(t, w, spawn, catalogs.AirName)
	set(t, w, spawn.Up(1), catalogs.AirName)
	return w
}

func set(t *testing.T, w *World, p tasks.Vec3i, name string) {
	t.Helper()
	w.Chunks().SetBlock(p.X, p.Y, p.Z, w.cat.Blocks.MustID(name))
}

func TestDigTakesHardnessTimesHandWork(t *testing.T) {
	w := newTestWorld(t)
	wall := spawn.Add(tasks.Vec3i{X: 1})
	if !w.SelectItem(runtime.HandFilter{}) {
		t.Fatalf("expected the hand to be selectable")
	}
	w.FaceSideOf(wall, tasks.FaceWest)
	if !w.IsFacingBlock(wall, tasks.FaceWest) {
		t.Fatalf("expected to face the wall")
	}
	for i := 0; i < 7; i++ {
		w.PerformPrimaryAction()
	}
	if w.IsAirAt(wall) {
		t.Fatalf("expected stone to survive 7 swings by hand")
	}
	w.PerformPrimaryAction()
	if !w.IsAirAt(wall) {
		t.Fatalf("expected stone dug after 8 swings, got %s", w.BlockAt(wall))
	}
	if got := w.Count("voxel:cobblestone"); got != 1 {
		t.Fatalf("expected 1 cobblestone drop, got %d", got)
	}
	if st := w.Stats(); st.Dug != 1 || st.Actions != 8 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestDigWithMatchingTool(t *testing.T) {
	w := newTestWorld(t, Stack{Item: "voxel:stone_pickaxe", Count: 1})
	wall := spawn.Add(tasks.Vec3i{X: 1})
	if !w.SelectItem(runtime.BlockItemFilter{Item: "voxel:stone_pickaxe"}) {
		t.Fatalf("expected pickaxe selected")
	}
	w.FaceSideOf(wall, tasks.FaceWest)
	for i := 0; i < 4; i++ {
		w.PerformPrimaryAction()
	}
	if !w.IsAirAt(wall) {
		t.Fatalf("expected stone dug after 4 swings with a stone pickaxe")
	}
}

func TestPlaceTorchAgainstWall(t *testing.T) {
	w := newTestWorld(t, Stack{Item: "voxel:torch", Count: 2})
	wall := spawn.Add(tasks.Vec3i{X: 1})
	if !w.SelectItem(runtime.BlockItemFilter{Item: "voxel:torch"}) {
		t.Fatalf("expected torch selected")
	}
	w.FaceSideOf(wall, tasks.FaceWest)
	w.PerformPrimaryAction()
	if got := w.BlockAt(spawn); got != "voxel:torch" {
		t.Fatalf("expected torch at feet, got %s", got)
	}
	if got := w.Count("voxel:torch"); got != 1 {
		t.Fatalf("expected one torch left, got %d", got)
	}
}

func TestPlaceSolidIntoBodyMisses(t *testing.T) {
	w := newTestWorld(t, Stack{Item: "voxel:cobblestone", Count: 1})
	floor := spawn.Up(-1)
	w.SelectItem(runtime.BlockItemFilter{Item: "voxel:cobblestone"})
	w.FaceSideOf(floor, tasks.FaceUp)
	w.PerformPrimaryAction()
	if !w.IsAirAt(spawn) {
		t.Fatalf("expected feet cell untouched, got %s", w.BlockAt(spawn))
	}
	if st := w.Stats(); st.Misses != 1 || st.Placed != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestFacingOccludedSide(t *testing.T) {
	w := newTestWorld(t)
	wall := spawn.Add(tasks.Vec3i{X: 1})
	w.FaceSideOf(wall, tasks.FaceEast)
	if w.IsFacingBlock(wall, tasks.FaceEast) {
		t.Fatalf("expected the buried east side to be hidden")
	}
	far := spawn.Add(tasks.Vec3i{X: 5, Y: 1})
	set(t, w, far, "voxel:stone")
	set(t, w, far.Add(tasks.Vec3i{X: -1}), catalogs.AirName)
	w.FaceSideOf(far, tasks.FaceWest)
	if w.IsFacingBlock(far, tasks.FaceWest) {
		t.Fatalf("expected %v out of reach", far)
	}
}

func TestSafetyChecks(t *testing.T) {
	w := newTestWorld(t)
	p := spawn.Add(tasks.Vec3i{X: 2})
	if !w.HasSafeSidesAt(p) {
		t.Fatalf("expected stone walls to be safe")
	}
	set(t, w, p.Add(tasks.Vec3i{Z: 1}), "voxel:water")
	if w.HasSafeSidesAt(p) {
		t.Fatalf("expected water wall to be unsafe")
	}
	set(t, w, p.Up(1), "voxel:gravel")
	if w.IsSafeHeadroomAt(p.Up(1)) {
		t.Fatalf("expected gravel headroom to be unsafe")
	}
	if !w.IsSafeHeadroomAt(p) {
		t.Fatalf("expected stone headroom to be safe")
	}
}

func TestMoveTo(t *testing.T) {
	w := newTestWorld(t)
	next := spawn.Add(tasks.Vec3i{X: 1})
	if w.MoveTo(next) {
		t.Fatalf("expected stone to block the step")
	}
	set(t, w, next, catalogs.AirName)
	set(t, w, next.Up(1), catalogs.AirName)
	if w.MoveTo(next.Add(tasks.Vec3i{X: 1})) {
		t.Fatalf("expected non-adjacent move to fail")
	}
	if !w.MoveTo(next) || w.Position() != next {
		t.Fatalf("expected body at %v, got %v", next, w.Position())
	}
}

func TestDigCost(t *testing.T) {
	w := newTestWorld(t)
	cases := []struct {
		block string
		cost  int
		ok    bool
	}{
		{catalogs.AirName, 0, true},
		{"voxel:stone", 2, true},
		{"voxel:diamond_ore", 4, true},
		{"voxel:torch", 1, true},
		{"voxel:bedrock", 0, false},
		{"voxel:lava", 0, false},
	}
	p := spawn.Add(tasks.Vec3i{Z: 2})
	for _, tc := range cases {
		set(t, w, p, tc.block)
		cost, ok := w.DigCost(p)
		if cost != tc.cost || ok != tc.ok {
			t.Fatalf("%s: expected (%d,%v), got (%d,%v)", tc.block, tc.cost, tc.ok, cost, ok)
		}
	}
	if _, ok := w.DigCost(tasks.Vec3i{Y: 40}); ok {
		t.Fatalf("expected out-of-bounds positions to be impassable")
	}
}

func TestSelectColoredVariant(t *testing.T) {
	w := newTestWorld(t,
		Stack{Item: "voxel:wool", Color: "red", Count: 3},
		Stack{Item: "voxel:wool", Color: "blue", Count: 1},
	)
	if !w.SelectItem(runtime.ColoredItemFilter{Item: "voxel:wool", Color: "blue"}) {
		t.Fatalf("expected blue wool selectable")
	}
	if item, color := w.Selected(); item != "voxel:wool" || color != "blue" {
		t.Fatalf("expected blue wool, got %s/%s", item, color)
	}
	if w.SelectItem(runtime.ColoredItemFilter{Item: "voxel:wool", Color: "green"}) {
		t.Fatalf("expected green wool missing")
	}
}

func TestPlaceColoredBlockTaskUsesRequestedColor(t *testing.T) {
	w := newTestWorld(t,
		Stack{Item: "voxel:wool", Color: "blue", Count: 2},
		Stack{Item: "voxel:wool", Color: "red", Count: 2},
	)
	pos := spawn.Add(tasks.Vec3i{X: 1, Y: 1})
	set(t, w, pos, catalogs.AirName)
	task := runtime.NewPlaceColoredBlockTask(pos, "voxel:wool", "red", "voxel:wool")

	st := task.Status(w)
	for i := 0; i < 10 && !st.Terminal(); i++ {
		if err := task.Tick(w, w); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		st = task.Status(w)
	}
	if st != tasks.StatusFinished {
		t.Fatalf("expected FINISHED, got %v", st)
	}
	if got := w.BlockAt(pos); got != "voxel:wool" {
		t.Fatalf("expected wool at %v, got %s", pos, got)
	}
	counts := map[string]int{}
	for _, s := range w.Inventory() {
		counts[s.Color] += s.Count
	}
	if counts["red"] != 1 || counts["blue"] != 2 {
		t.Fatalf("expected one red wool spent, got %v", counts)
	}
	if st := w.Stats(); st.Placed != 1 || st.Actions != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestNewRejectsUnknownItems(t *testing.T) {
	cat, _ := catalogs.LoadDefault()
	_, err := New(Config{Catalogs: cat, Gen: GenFromCatalog(cat, 1, 32, 32, 1000), Spawn: spawn, Inventory: []Stack{{Item: "voxel:nope", Count: 1}}})
	if err == nil {
		t.Fatalf("expected unknown item error")
	}
}

func TestVoxelsAround(t *testing.T) {
	w := newTestWorld(t)
	origin, dim, ids := w.VoxelsAround(1)
	if dim != 3 || len(ids) != 27 || origin != (tasks.Vec3i{X: -1, Y: 11, Z: -1}) {
		t.Fatalf("unexpected view origin=%v dim=%d len=%d", origin, dim, len(ids))
	}
	air := w.cat.Blocks.MustID(catalogs.AirName)
	// feet at (1,1,1), head at (1,2,1) in view coordinates
	if ids[1*9+1*3+1] != air || ids[2*9+1*3+1] != air {
		t.Fatalf("expected air in the body cells")
	}
	if ids[0] == air {
		t.Fatalf("expected stone in the corner")
	}
}

func TestDigestTracksChanges(t *testing.T) {
	a := newTestWorld(t)
	b := newTestWorld(t)
	if a.Digest() != b.Digest() {
		t.Fatalf("expected equal digests for equal worlds")
	}
	set(t, b, tasks.Vec3i{X: 1, Y: 12}, catalogs.AirName)
	if a.Digest() == b.Digest() {
		t.Fatalf("expected a block change to change the digest")
	}
	set(t, a, tasks.Vec3i{X: 1, Y: 12}, catalogs.AirName)
	a.give("voxel:coal", "", 1)
	if a.Digest() == b.Digest() {
		t.Fatalf("expected the inventory to change the digest")
	}
}
