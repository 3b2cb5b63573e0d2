package runtime

import (
	"fmt"

	"voxelminer.ai/internal/sim/tasks"
)

// WalkTask follows a path of feet positions, digging out whatever stands in the way.
type WalkTask struct {
	Path  []tasks.Vec3i
	tools ToolChooser
	next  int
}

func NewWalkTask(path []tasks.Vec3i, tools ToolChooser) *WalkTask {
	return &WalkTask{Path: append([]tasks.Vec3i(nil), path...), tools: tools}
}

func (t *WalkTask) Kind() tasks.Kind { return tasks.KindWalk }

// TickTimeout grows with the path: every step may need two blocks dug.
func (t *WalkTask) TickTimeout(base int) int { return base * (1 + len(t.Path)) }

func (t *WalkTask) Status(w WorldQuery) tasks.Status {
	if len(t.Path) == 0 || w.Position() == t.Path[len(t.Path)-1] {
		return tasks.StatusFinished
	}
	return tasks.StatusActive
}

func (t *WalkTask) Tick(w WorldQuery, x ActionExecutor) error {
	pos := w.Position()
	for t.next < len(t.Path) && t.Path[t.next] == pos {
		t.next++
	}
	if t.next >= len(t.Path) {
		return nil
	}
	step := t.Path[t.next]
	if tasks.Manhattan(pos, step) != 1 {
		return &BlockedError{At: step}
	}
	// Head first: the top of the feet block is only visible once the head block is gone.
	for _, p := range []tasks.Vec3i{step.Up(1), step} {
		if p == pos.Up(1) {
			continue
		}
		if !w.IsAirAt(p) {
			digAt(w, x, t.tools, p)
			return nil
		}
	}
	if !x.MoveTo(step) {
		return &BlockedError{At: step}
	}
	t.next++
	return nil
}

func (t *WalkTask) String() string {
	if len(t.Path) == 0 {
		return "WalkTask[empty]"
	}
	return fmt.Sprintf("WalkTask[to=%v steps=%d]", t.Path[len(t.Path)-1], len(t.Path))
}
