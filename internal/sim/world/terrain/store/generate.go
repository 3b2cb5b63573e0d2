package store

import genpkg "voxelminer.ai/internal/sim/world/terrain/gen"

func (s *ChunkStore) GenerateChunk(ch *Chunk) {
	g := s.Gen
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx := ch.CX*ChunkSize + x
			wz := ch.CZ*ChunkSize + z
			surface := genpkg.SurfaceY(g.Seed, wx, wz, ch.Height)

			for y := 0; y < ch.Height; y++ {
				ch.Blocks[ch.index(x, y, z)] = s.blockAt(wx, y, wz, surface)
			}
		}
	}
}

func (s *ChunkStore) blockAt(x, y, z, surface int) uint16 {
	g := s.Gen
	switch {
	case y == 0:
		return g.Bedrock
	case y >= surface:
		return g.Air
	case y >= surface-2:
		return g.Dirt
	}

	scale := g.OreScalePermille
	switch {
	case y < 6 && genpkg.InVein(g.Seed+501, x, y, z, 24, 2, genpkg.ScalePermille(150, scale)):
		return g.Lava
	case y < 12 && genpkg.InVein(g.Seed+101, x, y, z, 16, 1, genpkg.ScalePermille(250, scale)):
		return g.DiamondOre
	case y < 20 && genpkg.InVein(g.Seed+102, x, y, z, 12, 1, genpkg.ScalePermille(300, scale)):
		return g.GoldOre
	case genpkg.InVein(g.Seed+103, x, y, z, 10, 2, genpkg.ScalePermille(350, scale)):
		return g.IronOre
	case genpkg.InVein(g.Seed+104, x, y, z, 8, 2, genpkg.ScalePermille(450, scale)):
		return g.CoalOre
	case genpkg.InVein(g.Seed+201, x, y, z, 12, 2, genpkg.ScalePermille(200, scale)):
		return g.Gravel
	}
	if genpkg.Hash3(g.Seed+999, x, y, z)%1000 < 3 {
		return g.Air
	}
	return g.Stone
}
