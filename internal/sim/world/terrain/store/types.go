package store

import (
	"crypto/sha256"
	"encoding/binary"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CZ int
}

type Chunk struct {
	CX, CZ int
	Height int
	Blocks []uint16 // len = 16*16*Height, y-major

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*ChunkSize + y*ChunkSize*ChunkSize
}

func (c *Chunk) Get(x, y, z int) uint16 {
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b uint16) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

type WorldGen struct {
	Seed      int64
	BoundaryR int // blocks
	Height    int

	OreScalePermille int

	Air        uint16
	Bedrock    uint16
	Stone      uint16
	Dirt       uint16
	Gravel     uint16
	Lava       uint16
	CoalOre    uint16
	IronOre    uint16
	GoldOre    uint16
	DiamondOre uint16
}

type ChunkStore struct {
	Gen    WorldGen
	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore(gen WorldGen) *ChunkStore {
	if gen.Height <= 0 {
		gen.Height = 32
	}
	return &ChunkStore{
		Gen:    gen,
		Chunks: map[ChunkKey]*Chunk{},
	}
}
