// Package sandbox runs one agent body against a generated chunk store. It is the
// offline stand-in for a game client: every query answers from current state and
// every action applies immediately.
package sandbox

import (
	"fmt"
	"io"
	"log"

	"voxelminer.ai/internal/sim/catalogs"
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/world/feature/work/mining"
	"voxelminer.ai/internal/sim/world/terrain/store"
)

// DefaultReach is the Manhattan distance from the eyes the body can act at.
const DefaultReach = 4

type Stack struct {
	Item  string `json:"item" yaml:"item"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
	Count int    `json:"count" yaml:"count"`
}

type Config struct {
	Catalogs  *catalogs.Catalogs
	Gen       store.WorldGen
	Spawn     tasks.Vec3i
	Inventory []Stack
	Reach     int
	Logger    *log.Logger
}

// Stats counts what the body did.
type Stats struct {
	Actions int
	Misses  int
	Dug     int
	Placed  int
	Moves   int
}

// BlockChange is reported for every block the body digs or places.
type BlockChange struct {
	Pos      tasks.Vec3i
	From, To string
}

type World struct {
	cat    *catalogs.Catalogs
	chunks *store.ChunkStore
	tools  *mining.Toolbox
	log    *log.Logger
	reach  int

	pos      tasks.Vec3i
	inv      []Stack
	selected int // index into inv, -1 for the empty hand

	facing     bool
	facingAt   tasks.Vec3i
	facingSide tasks.Face

	digAt    tasks.Vec3i
	digWork  int
	digValid bool

	stats    Stats
	onChange func(BlockChange)
}

// New generates the world around the spawn and clears room for the body there.
func New(cfg Config) (*World, error) {
	if cfg.Catalogs == nil {
		return nil, fmt.Errorf("sandbox: nil catalogs")
	}
	if cfg.Reach <= 0 {
		cfg.Reach = DefaultReach
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w := &World{
		cat:      cfg.Catalogs,
		chunks:   store.NewChunkStore(cfg.Gen),
		tools:    mining.NewToolbox(cfg.Catalogs),
		log:      logger,
		reach:    cfg.Reach,
		pos:      cfg.Spawn,
		selected: -1,
	}
	if !w.chunks.InBounds(cfg.Spawn.X, cfg.Spawn.Y, cfg.Spawn.Z) || !w.chunks.InBounds(cfg.Spawn.X, cfg.Spawn.Y+1, cfg.Spawn.Z) {
		return nil, fmt.Errorf("sandbox: spawn %v out of bounds", cfg.Spawn)
	}
	for _, s := range cfg.Inventory {
		if _, ok := cfg.Catalogs.Items.Defs[s.Item]; !ok {
			return nil, fmt.Errorf("sandbox: unknown item %q", s.Item)
		}
		if s.Count > 0 {
			w.inv = append(w.inv, s)
		}
	}
	w.setBlock(cfg.Spawn, w.chunks.Gen.Air)
	w.setBlock(cfg.Spawn.Up(1), w.chunks.Gen.Air)
	return w, nil
}

// Chunks exposes the backing store, for tests and trace digests.
func (w *World) Chunks() *store.ChunkStore { return w.chunks }

func (w *World) Toolbox() *mining.Toolbox { return w.tools }

func (w *World) Stats() Stats { return w.stats }

// OnBlockChange registers fn to be called after every dig or placement.
func (w *World) OnBlockChange(fn func(BlockChange)) { w.onChange = fn }

// Inventory returns a copy of the body's stacks.
func (w *World) Inventory() []Stack { return append([]Stack(nil), w.inv...) }

func (w *World) Count(item string) int {
	n := 0
	for _, s := range w.inv {
		if s.Item == item {
			n += s.Count
		}
	}
	return n
}

func (w *World) eye() tasks.Vec3i { return w.pos.Up(1) }

func (w *World) blockID(p tasks.Vec3i) uint16 { return w.chunks.GetBlock(p.X, p.Y, p.Z) }

func (w *World) def(p tasks.Vec3i) catalogs.BlockDef {
	d, _ := w.cat.Blocks.Def(w.blockID(p))
	return d
}

func (w *World) setBlock(p tasks.Vec3i, id uint16) {
	from := w.blockID(p)
	if from == id {
		return
	}
	w.chunks.SetBlock(p.X, p.Y, p.Z, id)
	if w.onChange != nil {
		w.onChange(BlockChange{Pos: p, From: w.cat.Blocks.Name(from), To: w.cat.Blocks.Name(id)})
	}
}

// GenFromCatalog binds the generator's block roles to the catalog's palette ids.
func GenFromCatalog(c *catalogs.Catalogs, seed int64, boundaryR, height, orePermille int) store.WorldGen {
	id := c.Blocks.MustID
	return store.WorldGen{
		Seed:             seed,
		BoundaryR:        boundaryR,
		Height:           height,
		OreScalePermille: orePermille,
		Air:              id(catalogs.AirName),
		Bedrock:          id("voxel:bedrock"),
		Stone:            id("voxel:stone"),
		Dirt:             id("voxel:dirt"),
		Gravel:           id("voxel:gravel"),
		Lava:             id("voxel:lava"),
		CoalOre:          id("voxel:coal_ore"),
		IronOre:          id("voxel:iron_ore"),
		GoldOre:          id("voxel:gold_ore"),
		DiamondOre:       id("voxel:diamond_ore"),
	}
}
