package sandbox

import (
	"voxelminer.ai/internal/sim/tasks"
)

func (w *World) Position() tasks.Vec3i { return w.pos }

func (w *World) BlockTypeIDAt(p tasks.Vec3i) uint16 { return w.blockID(p) }

func (w *World) BlockAt(p tasks.Vec3i) string { return w.cat.Blocks.Name(w.blockID(p)) }

func (w *World) IsAirAt(p tasks.Vec3i) bool { return w.blockID(p) == w.chunks.Gen.Air }

// HasSafeSidesAt reports whether opening p exposes no liquid from the four walls.
func (w *World) HasSafeSidesAt(p tasks.Vec3i) bool {
	for _, f := range tasks.HorizontalFaces {
		if w.def(p.Add(f.Offset())).Liquid {
			return false
		}
	}
	return !w.def(p).Liquid
}

// IsSafeHeadroomAt reports whether the block at p stays put when what is below it
// is dug out.
func (w *World) IsSafeHeadroomAt(p tasks.Vec3i) bool {
	d := w.def(p)
	return !d.Falling && !d.Liquid
}

// IsFacingBlock is true when the body looks at side of a non-air block within reach
// and nothing occludes that side.
func (w *World) IsFacingBlock(p tasks.Vec3i, side tasks.Face) bool {
	if !w.facing || w.facingAt != p || w.facingSide != side {
		return false
	}
	return w.canSee(p, side)
}

func (w *World) canSee(p tasks.Vec3i, side tasks.Face) bool {
	if w.IsAirAt(p) || tasks.Manhattan(w.eye(), p) > w.reach {
		return false
	}
	front := p.Add(side.Offset())
	return !w.def(front).Solid
}

// DigCost is the price of clearing p for walking: 0 for passable blocks, the hardness
// (at least 1) for breakable ones, false for liquids and unbreakable blocks.
func (w *World) DigCost(p tasks.Vec3i) (int, bool) {
	if !w.chunks.InBounds(p.X, p.Y, p.Z) {
		return 0, false
	}
	d := w.def(p)
	switch {
	case d.Liquid:
		return 0, false
	case w.IsAirAt(p):
		return 0, true
	case !d.Breakable:
		return 0, false
	case d.Hardness < 1:
		return 1, true
	default:
		return d.Hardness, true
	}
}
