package gen

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

func Hash3(seed int64, x, y, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xc2b2ae3d27d4eb4f) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

func ClampPermille(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}

func ScalePermille(base uint64, scalePermille int) uint64 {
	if scalePermille <= 0 {
		scalePermille = 1000
	}
	scaled := (base*uint64(scalePermille) + 500) / 1000
	if scaled > 1000 {
		return 1000
	}
	return scaled
}

// SurfaceY is the first air layer above the ground column at (x,z).
func SurfaceY(seed int64, x, z, height int) int {
	base := height * 3 / 4
	bump := int(Hash2(seed+7, FloorDiv(x, 4), FloorDiv(z, 4)) % 3)
	y := base + bump - 1
	if y < 2 {
		y = 2
	}
	if y > height-2 {
		y = height - 2
	}
	return y
}

// InVein reports whether (x,y,z) lies in a vein of the given cell size. Veins are
// sphere-ish blobs seeded once per 3D grid cell, so neighbouring blocks cluster and
// stacked (double) targets occur naturally.
func InVein(seed int64, x, y, z, grid, radius int, probPermille uint64) bool {
	if grid <= 0 || radius <= 0 || probPermille == 0 {
		return false
	}
	gx := FloorDiv(x, grid)
	gy := FloorDiv(y, grid)
	gz := FloorDiv(z, grid)
	r2 := radius * radius

	for dy := -1; dy <= 1; dy++ {
		for dz := -1; dz <= 1; dz++ {
			for dx := -1; dx <= 1; dx++ {
				cgx, cgy, cgz := gx+dx, gy+dy, gz+dz
				h := Hash3(seed, cgx, cgy, cgz)
				if h%1000 >= probPermille {
					continue
				}
				cx := cgx*grid + int((h>>10)%uint64(grid))
				cy := cgy*grid + int((h>>20)%uint64(grid))
				cz := cgz*grid + int((h>>30)%uint64(grid))
				ddx, ddy, ddz := x-cx, y-cy, z-cz
				if ddx*ddx+ddy*ddy+ddz*ddz <= r2 {
					return true
				}
			}
		}
	}
	return false
}
