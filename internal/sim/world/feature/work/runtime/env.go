package runtime

import (
	"fmt"

	"voxelminer.ai/internal/sim/tasks"
)

// WorldQuery is the read-only view of the world a task sees. Calls return current
// state immediately.
type WorldQuery interface {
	Position() tasks.Vec3i
	BlockTypeIDAt(p tasks.Vec3i) uint16
	// BlockAt returns the palette name of the block at p.
	BlockAt(p tasks.Vec3i) string
	IsAirAt(p tasks.Vec3i) bool
	HasSafeSidesAt(p tasks.Vec3i) bool
	IsSafeHeadroomAt(p tasks.Vec3i) bool
	IsFacingBlock(p tasks.Vec3i, side tasks.Face) bool
}

// ActionExecutor issues primitive actions for the agent body.
type ActionExecutor interface {
	SelectItem(f ItemFilter) bool
	FaceSideOf(p tasks.Vec3i, side tasks.Face)
	PerformPrimaryAction()
	// MoveTo steps into an adjacent, cleared position.
	MoveTo(p tasks.Vec3i) bool
}

// Task is one unit of scheduled work. The scheduler evaluates Status every tick and
// calls Tick while the status is not terminal; a Tick issues at most one action.
type Task interface {
	Kind() tasks.Kind
	Status(w WorldQuery) tasks.Status
	Tick(w WorldQuery, x ActionExecutor) error
	// TickTimeout scales the scheduler's base tick budget for this task.
	TickTimeout(base int) int
	fmt.Stringer
}

// ToolChooser lists tool items for breaking a block, best first.
type ToolChooser interface {
	ToolsFor(blockID uint16) []string
}
