package sandbox

import (
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/world/feature/work/mining"
	"voxelminer.ai/internal/sim/world/feature/work/runtime"
)

// SelectItem picks the first stack f matches. HandFilter always succeeds.
func (w *World) SelectItem(f runtime.ItemFilter) bool {
	if f.Matches("", "") {
		w.selected = -1
		return true
	}
	for i, s := range w.inv {
		if s.Count > 0 && f.Matches(s.Item, s.Color) {
			w.selected = i
			return true
		}
	}
	return false
}

func (w *World) Selected() (item, color string) {
	if w.selected < 0 || w.selected >= len(w.inv) {
		return "", ""
	}
	s := w.inv[w.selected]
	return s.Item, s.Color
}

func (w *World) FaceSideOf(p tasks.Vec3i, side tasks.Face) {
	w.facing, w.facingAt, w.facingSide = true, p, side
}

// PerformPrimaryAction uses the selected item on the faced block: block items are
// placed against it, anything else digs. Digging takes several calls depending on
// hardness and tool tier; looking elsewhere resets the progress.
func (w *World) PerformPrimaryAction() {
	w.stats.Actions++
	if !w.facing || !w.canSee(w.facingAt, w.facingSide) {
		w.stats.Misses++
		return
	}
	item, _ := w.Selected()
	if def, ok := w.cat.Items.Defs[item]; ok && def.Kind == "BLOCK" && def.PlaceAs != "" {
		w.place(def.PlaceAs)
		return
	}
	w.dig(item)
}

func (w *World) place(blockName string) {
	target := w.facingAt.Add(w.facingSide.Offset())
	id, ok := w.cat.Blocks.Index[blockName]
	if !ok || !w.IsAirAt(target) || !w.chunks.InBounds(target.X, target.Y, target.Z) {
		w.stats.Misses++
		return
	}
	if def, _ := w.cat.Blocks.Def(id); def.Solid && (target == w.pos || target == w.pos.Up(1)) {
		w.stats.Misses++
		return
	}
	w.setBlock(target, id)
	w.inv[w.selected].Count--
	if w.inv[w.selected].Count <= 0 {
		w.inv = append(w.inv[:w.selected], w.inv[w.selected+1:]...)
		w.selected = -1
	}
	w.stats.Placed++
}

func (w *World) dig(tool string) {
	p := w.facingAt
	def := w.def(p)
	if !def.Breakable {
		w.stats.Misses++
		return
	}
	if !w.digValid || w.digAt != p {
		w.digAt, w.digWork, w.digValid = p, 0, true
	}
	tier := 0
	if fam := mining.MineToolFamilyForBlock(def); fam != mining.ToolFamilyNone {
		if t, ok := w.cat.Items.Defs[tool]; ok && t.Tool == fam.String() {
			tier = t.Tier
		}
	}
	need, _ := mining.MineParamsForTier(def.Hardness, tier)
	w.digWork++
	if w.digWork < need {
		return
	}
	w.digValid = false
	w.setBlock(p, w.chunks.Gen.Air)
	if def.DropsItem != "" {
		w.give(def.DropsItem, "", 1)
	}
	w.stats.Dug++
}

func (w *World) give(item, color string, n int) {
	for i := range w.inv {
		if w.inv[i].Item == item && w.inv[i].Color == color {
			w.inv[i].Count += n
			return
		}
	}
	w.inv = append(w.inv, Stack{Item: item, Color: color, Count: n})
}

// MoveTo steps to an adjacent position whose feet and head cells are free.
func (w *World) MoveTo(p tasks.Vec3i) bool {
	if tasks.Manhattan(w.pos, p) != 1 {
		return false
	}
	for _, c := range []tasks.Vec3i{p, p.Up(1)} {
		if !w.chunks.InBounds(c.X, c.Y, c.Z) {
			return false
		}
		if d := w.def(c); d.Solid || d.Liquid {
			return false
		}
	}
	w.pos = p
	w.facing = false
	w.stats.Moves++
	return true
}

var (
	_ runtime.WorldQuery     = (*World)(nil)
	_ runtime.ActionExecutor = (*World)(nil)
)
