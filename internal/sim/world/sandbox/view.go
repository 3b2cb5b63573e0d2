package sandbox

import "voxelminer.ai/internal/sim/tasks"

// VoxelsAround copies the cube of side 2r+1 centred on the body's feet, x fastest,
// then z, then y.
func (w *World) VoxelsAround(r int) (origin tasks.Vec3i, dim int, ids []uint16) {
	if r < 0 {
		r = 0
	}
	dim = 2*r + 1
	origin = tasks.Vec3i{X: w.pos.X - r, Y: w.pos.Y - r, Z: w.pos.Z - r}
	ids = make([]uint16, 0, dim*dim*dim)
	for y := 0; y < dim; y++ {
		for z := 0; z < dim; z++ {
			for x := 0; x < dim; x++ {
				ids = append(ids, w.chunks.GetBlock(origin.X+x, origin.Y+y, origin.Z+z))
			}
		}
	}
	return origin, dim, ids
}
