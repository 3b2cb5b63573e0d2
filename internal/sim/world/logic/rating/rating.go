package rating

import (
	"math"
	"math/rand"
	"strings"

	"voxelminer.ai/internal/sim/catalogs"
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/tuning"
	"voxelminer.ai/internal/sim/world/logic/blockcache"
)

const (
	// MinFactor is the floor of MaxDistanceFactor.
	MinFactor = 0.1
	MaxFactor = 10.0
	MaxPoints = 50.0
)

// Reject is returned by RateDestination for positions that are not targets. Costs are
// minimized, so the search simply skips it.
var Reject = math.Inf(1)

type SettingsProvider interface {
	GetFloat(key string, def, min, max float64) float64
	Keys() []string
}

type World interface {
	BlockTypeIDAt(p tasks.Vec3i) uint16
}

// Config is computed once per session from the settings.
type Config struct {
	MaxDistancePoints float64
	MaxDistanceFactor float64
	DoubleAdd         float64
	Randomness        float64
}

func NewConfig(s SettingsProvider) Config {
	cfg := Config{
		MaxDistancePoints: 0,
		MaxDistanceFactor: MinFactor,
	}
	for _, k := range s.Keys() {
		switch {
		case strings.HasPrefix(k, tuning.PointsPrefix):
			p := s.GetFloat(k, 1, 0, MaxPoints)
			cfg.MaxDistancePoints = math.Max(p, cfg.MaxDistancePoints)
		case strings.HasPrefix(k, tuning.FactorPrefix):
			f := s.GetFloat(k, 1, 0, MaxFactor)
			if f > 0 {
				cfg.MaxDistanceFactor = math.Max(f, cfg.MaxDistanceFactor)
			}
		}
	}
	cfg.DoubleAdd = s.GetFloat(tuning.KeyDoubleAdd, 1, 0.1, 10)
	cfg.Randomness = s.GetFloat(tuning.KeyRandomness, 0, 0, 1)
	return cfg
}

type Params struct {
	Settings SettingsProvider
	// Names maps a block id to its palette name; "" marks an unknown id.
	Names    func(id uint16) string
	Capacity int
	// Rand drives the jitter. Nil seeds a private source.
	Rand *rand.Rand
}

// Engine rates candidate target positions for one pathfinder session. Lower cost is
// better. Not safe for concurrent use.
type Engine struct {
	cfg     Config
	world   World
	points  *blockcache.Cache
	factors *blockcache.Cache
	rnd     *rand.Rand
}

func New(world World, p Params) *Engine {
	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	capacity := p.Capacity
	if capacity <= 0 {
		capacity = blockcache.MaxBlockIDs
	}
	return &Engine{
		cfg:     NewConfig(p.Settings),
		world:   world,
		points:  blockcache.New(capacity, settingResolver(p.Settings, p.Names, tuning.PointsPrefix, MaxPoints)),
		factors: blockcache.New(capacity, settingResolver(p.Settings, p.Names, tuning.FactorPrefix, MaxFactor)),
		rnd:     rnd,
	}
}

func settingResolver(s SettingsProvider, names func(uint16) string, prefix string, max float64) blockcache.Resolver {
	return func(id uint16) (float64, bool) {
		name := names(id)
		if name == "" {
			return 0, false
		}
		return s.GetFloat(prefix+catalogs.ShortName(name), 0, 0, max), true
	}
}

func (e *Engine) Config() Config { return e.cfg }

// Resolutions counts settings lookups made by both property caches.
func (e *Engine) Resolutions() int { return e.points.Resolutions() + e.factors.Resolutions() }

// RateOreBlockDistance is the cost of mining the block at p reached after distance
// moves. A factor of exactly zero excludes the block (+Inf) whatever its points.
func (e *Engine) RateOreBlockDistance(distance int, p tasks.Vec3i) (float64, error) {
	id := e.world.BlockTypeIDAt(p)
	points, err := e.points.Get(id)
	if err != nil {
		return Reject, err
	}
	factor, err := e.factors.Get(id)
	if err != nil {
		return Reject, err
	}
	if factor == 0 {
		return math.Inf(1), nil
	}
	return float64(distance)/factor*e.cfg.MaxDistanceFactor + e.cfg.MaxDistancePoints - points, nil
}

// RateDestination rates standing at p: the block at p and the one above it are both
// mined. Double targets get DoubleAdd taken off the cheaper of the two costs.
func (e *Engine) RateDestination(distance int, p tasks.Vec3i) (float64, error) {
	above, err := e.RateOreBlockDistance(distance, p.Up(1))
	if err != nil {
		return Reject, err
	}
	here, err := e.RateOreBlockDistance(distance, p)
	if err != nil {
		return Reject, err
	}

	rating := math.Min(above, here)
	if math.IsInf(rating, 1) {
		return Reject, nil
	}
	if !math.IsInf(above, 1) && !math.IsInf(here, 1) {
		rating -= e.cfg.DoubleAdd
	}
	return e.jitter(rating), nil
}

// jitter lowers the cost by up to Randomness of its magnitude. It never raises it,
// so a negative cost can land below cost*(1-Randomness).
func (e *Engine) jitter(rating float64) float64 {
	if e.cfg.Randomness == 0 {
		return rating
	}
	return rating - math.Abs(rating)*e.cfg.Randomness*e.rnd.Float64()
}

func (e *Engine) IsOreTarget(p tasks.Vec3i) bool {
	f, err := e.factors.Get(e.world.BlockTypeIDAt(p))
	return err == nil && f > 0
}

// MaterialCost makes digging through target blocks free for the search.
func (e *Engine) MaterialCost(p tasks.Vec3i, base int) int {
	if e.IsOreTarget(p) {
		return 0
	}
	return base
}
