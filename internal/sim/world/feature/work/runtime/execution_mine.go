package runtime

import (
	"fmt"

	"voxelminer.ai/internal/sim/tasks"
)

// MineBlockTask breaks the block at Pos. It is finished once the position is air;
// the scheduler's tick budget bounds how long it may hammer at an unbreakable block.
type MineBlockTask struct {
	Pos   tasks.Vec3i
	tools ToolChooser
}

func NewMineBlockTask(pos tasks.Vec3i, tools ToolChooser) *MineBlockTask {
	return &MineBlockTask{Pos: pos, tools: tools}
}

func (t *MineBlockTask) Kind() tasks.Kind { return tasks.KindMine }

func (t *MineBlockTask) TickTimeout(base int) int { return base }

func (t *MineBlockTask) Status(w WorldQuery) tasks.Status {
	if w.IsAirAt(t.Pos) {
		return tasks.StatusFinished
	}
	return tasks.StatusActive
}

func (t *MineBlockTask) Tick(w WorldQuery, x ActionExecutor) error {
	if w.IsAirAt(t.Pos) {
		return nil
	}
	digAt(w, x, t.tools, t.Pos)
	return nil
}

func (t *MineBlockTask) String() string {
	return fmt.Sprintf("MineBlockTask[pos=%v]", t.Pos)
}

// digAt selects the best tool held for the block at p, faces the side of p toward
// the agent's eyes and swings once. A missing tool is fine, the hand still digs.
func digAt(w WorldQuery, x ActionExecutor, tools ToolChooser, p tasks.Vec3i) {
	held := false
	if tools != nil {
		for _, item := range tools.ToolsFor(w.BlockTypeIDAt(p)) {
			if x.SelectItem(BlockItemFilter{Item: item}) {
				held = true
				break
			}
		}
	}
	if !held {
		x.SelectItem(HandFilter{})
	}
	side := tasks.FaceToward(p, w.Position().Up(1))
	x.FaceSideOf(p, side)
	if w.IsFacingBlock(p, side) {
		x.PerformPrimaryAction()
	}
}
