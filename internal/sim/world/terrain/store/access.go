package store

import (
	"sort"

	genpkg "voxelminer.ai/internal/sim/world/terrain/gen"
)

func (s *ChunkStore) InBounds(x, y, z int) bool {
	if y < 0 || y >= s.Gen.Height {
		return false
	}
	if s.Gen.BoundaryR > 0 {
		if x < -s.Gen.BoundaryR || x > s.Gen.BoundaryR || z < -s.Gen.BoundaryR || z > s.Gen.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// GetBlock returns bedrock outside the world so nothing walks or digs past the edge.
func (s *ChunkStore) GetBlock(x, y, z int) uint16 {
	if !s.InBounds(x, y, z) {
		return s.Gen.Bedrock
	}
	ch := s.GetOrGenChunk(genpkg.FloorDiv(x, ChunkSize), genpkg.FloorDiv(z, ChunkSize))
	return ch.Get(genpkg.Mod(x, ChunkSize), y, genpkg.Mod(z, ChunkSize))
}

func (s *ChunkStore) SetBlock(x, y, z int, b uint16) {
	if !s.InBounds(x, y, z) {
		return
	}
	ch := s.GetOrGenChunk(genpkg.FloorDiv(x, ChunkSize), genpkg.FloorDiv(z, ChunkSize))
	ch.Set(genpkg.Mod(x, ChunkSize), y, genpkg.Mod(z, ChunkSize), b)
}

func (s *ChunkStore) GetOrGenChunk(cx, cz int) *Chunk {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := &Chunk{
		CX:     cx,
		CZ:     cz,
		Height: s.Gen.Height,
		Blocks: make([]uint16, ChunkSize*ChunkSize*s.Gen.Height),
	}
	s.GenerateChunk(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	return ch
}
