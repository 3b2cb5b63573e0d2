// Package plan turns a chosen target into queued work tasks.
package plan

import (
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/world/feature/work/runtime"
	"voxelminer.ai/internal/sim/world/logic/movement"
)

// Column planning starts two blocks above the target (the target and the block above
// it are dug by reaching the target) and stops before the fifth.
const (
	ColumnStart = 2
	ColumnEnd   = 5
)

type TaskSink interface {
	Enqueue(t runtime.Task)
}

type ColumnEnv interface {
	HasSafeSidesAt(p tasks.Vec3i) bool
	IsSafeHeadroomAt(p tasks.Vec3i) bool
}

type OreRater interface {
	IsOreTarget(p tasks.Vec3i) bool
}

// PlanColumn queues mine tasks for the ore stacked above target. It stops at the
// first position that is unsafe to open or is not ore, and returns the number of
// tasks queued.
func PlanColumn(env ColumnEnv, ore OreRater, tools runtime.ToolChooser, target tasks.Vec3i, sink TaskSink) int {
	n := 0
	for i := ColumnStart; i < ColumnEnd; i++ {
		p := target.Up(i)
		if !env.HasSafeSidesAt(p) || !env.IsSafeHeadroomAt(p.Up(1)) {
			break
		}
		if !ore.IsOreTarget(p) {
			break
		}
		sink.Enqueue(runtime.NewMineBlockTask(p, tools))
		n++
	}
	return n
}

// PlanTarget queues the walk to target, which digs out the target and the block
// above it, followed by the column above.
func PlanTarget(env ColumnEnv, ore OreRater, tools runtime.ToolChooser, target movement.Target, sink TaskSink) int {
	n := 0
	if len(target.Path) > 0 {
		sink.Enqueue(runtime.NewWalkTask(target.Path, tools))
		n++
	}
	return n + PlanColumn(env, ore, tools, target.Pos, sink)
}
