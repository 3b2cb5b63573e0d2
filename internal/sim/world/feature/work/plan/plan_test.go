package plan

import (
	"testing"

	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/world/feature/work/runtime"
	"voxelminer.ai/internal/sim/world/logic/movement"
)

type stubEnv struct {
	unsafeSides    map[tasks.Vec3i]bool
	unsafeHeadroom map[tasks.Vec3i]bool
	ore            map[tasks.Vec3i]bool
}

func (s stubEnv) HasSafeSidesAt(p tasks.Vec3i) bool   { return !s.unsafeSides[p] }
func (s stubEnv) IsSafeHeadroomAt(p tasks.Vec3i) bool { return !s.unsafeHeadroom[p] }
func (s stubEnv) IsOreTarget(p tasks.Vec3i) bool      { return s.ore[p] }

type sink struct{ got []runtime.Task }

func (s *sink) Enqueue(t runtime.Task) { s.got = append(s.got, t) }

func TestPlanColumnStopsAtUnsafeSides(t *testing.T) {
	target := tasks.Vec3i{X: 3, Y: 10, Z: -2}
	env := stubEnv{
		unsafeSides: map[tasks.Vec3i]bool{target.Up(4): true},
		ore:         map[tasks.Vec3i]bool{target.Up(2): true, target.Up(3): true, target.Up(4): true},
	}
	var s sink
	if n := PlanColumn(env, env, nil, target, &s); n != 2 {
		t.Fatalf("expected 2 tasks, got %d", n)
	}
	for i, task := range s.got {
		m, ok := task.(*runtime.MineBlockTask)
		if !ok {
			t.Fatalf("task %d: expected mine task, got %T", i, task)
		}
		if want := target.Up(2 + i); m.Pos != want {
			t.Fatalf("task %d: expected %v, got %v", i, want, m.Pos)
		}
	}
}

func TestPlanColumnStopsAtNonOre(t *testing.T) {
	target := tasks.Vec3i{}
	env := stubEnv{ore: map[tasks.Vec3i]bool{target.Up(3): true, target.Up(4): true}}
	var s sink
	if n := PlanColumn(env, env, nil, target, &s); n != 0 {
		t.Fatalf("expected no task when +2 is not ore, got %d", n)
	}
}

func TestPlanColumnHeadroomChecksBlockAbove(t *testing.T) {
	target := tasks.Vec3i{}
	env := stubEnv{
		unsafeHeadroom: map[tasks.Vec3i]bool{target.Up(4): true},
		ore:            map[tasks.Vec3i]bool{target.Up(2): true, target.Up(3): true, target.Up(4): true},
	}
	var s sink
	if n := PlanColumn(env, env, nil, target, &s); n != 1 {
		t.Fatalf("expected 1 task, got %d", n)
	}
}

func TestPlanTargetWalksFirst(t *testing.T) {
	target := movement.Target{
		Pos:  tasks.Vec3i{X: 2},
		Path: []tasks.Vec3i{{X: 1}, {X: 2}},
	}
	env := stubEnv{ore: map[tasks.Vec3i]bool{target.Pos.Up(2): true}}
	var s sink
	if n := PlanTarget(env, env, nil, target, &s); n != 2 {
		t.Fatalf("expected walk plus one mine task, got %d", n)
	}
	if s.got[0].Kind() != tasks.KindWalk || s.got[1].Kind() != tasks.KindMine {
		t.Fatalf("unexpected order: %v", s.got)
	}
}
