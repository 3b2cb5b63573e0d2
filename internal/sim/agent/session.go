package agent

import (
	"math/rand"

	"github.com/google/uuid"

	"voxelminer.ai/internal/sim/catalogs"
	"voxelminer.ai/internal/sim/world/feature/work/mining"
	"voxelminer.ai/internal/sim/world/logic/rating"
)

// Session bundles what one mining run decides with: palettes, the settings-derived
// rating engine and the tool index. A session belongs to a single agent.
type Session struct {
	ID       string
	Catalogs *catalogs.Catalogs
	Engine   *rating.Engine
	Tools    *mining.Toolbox
}

// NewSession builds the rating engine over world. seed drives the jitter so runs
// replay identically.
func NewSession(cat *catalogs.Catalogs, settings rating.SettingsProvider, world rating.World, seed int64) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Catalogs: cat,
		Engine: rating.New(world, rating.Params{
			Settings: settings,
			Names:    cat.Blocks.Name,
			Capacity: len(cat.Blocks.Palette),
			Rand:     rand.New(rand.NewSource(seed)),
		}),
		Tools: mining.NewToolbox(cat),
	}
}
