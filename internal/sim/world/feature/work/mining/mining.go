package mining

import (
	"sort"

	"voxelminer.ai/internal/sim/catalogs"
)

type ToolFamily int

const (
	ToolFamilyNone ToolFamily = iota
	ToolFamilyPickaxe
	ToolFamilyAxe
	ToolFamilyShovel
)

func (f ToolFamily) String() string {
	switch f {
	case ToolFamilyPickaxe:
		return "pickaxe"
	case ToolFamilyAxe:
		return "axe"
	case ToolFamilyShovel:
		return "shovel"
	default:
		return "hand"
	}
}

func parseFamily(s string) ToolFamily {
	switch s {
	case "pickaxe":
		return ToolFamilyPickaxe
	case "axe":
		return ToolFamilyAxe
	case "shovel":
		return ToolFamilyShovel
	default:
		return ToolFamilyNone
	}
}

// MineToolFamilyForBlock reads the preferred tool from the block definition.
func MineToolFamilyForBlock(def catalogs.BlockDef) ToolFamily {
	return parseFamily(def.Tool)
}

type tool struct {
	item string
	tier int
}

// Toolbox indexes the tool items of an item catalog by family.
type Toolbox struct {
	blocks *catalogs.BlockCatalog
	byFam  map[ToolFamily][]tool
	tierOf map[string]int
}

func NewToolbox(c *catalogs.Catalogs) *Toolbox {
	tb := &Toolbox{
		blocks: &c.Blocks,
		byFam:  map[ToolFamily][]tool{},
		tierOf: map[string]int{},
	}
	for _, id := range c.Items.Palette {
		def := c.Items.Defs[id]
		if def.Kind != "TOOL" {
			continue
		}
		fam := parseFamily(def.Tool)
		if fam == ToolFamilyNone {
			continue
		}
		tb.byFam[fam] = append(tb.byFam[fam], tool{item: id, tier: def.Tier})
		tb.tierOf[id] = def.Tier
	}
	for fam := range tb.byFam {
		ts := tb.byFam[fam]
		sort.SliceStable(ts, func(i, j int) bool {
			if ts[i].tier != ts[j].tier {
				return ts[i].tier > ts[j].tier
			}
			return ts[i].item < ts[j].item
		})
	}
	return tb
}

// ToolsFor lists the tools that speed up breaking blockID, highest tier first. An
// empty list means the bare hand is as good as anything.
func (tb *Toolbox) ToolsFor(blockID uint16) []string {
	def, ok := tb.blocks.Def(blockID)
	if !ok {
		return nil
	}
	ts := tb.byFam[MineToolFamilyForBlock(def)]
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.item)
	}
	return out
}

// Tier returns the tier of a tool item, 0 for anything else.
func (tb *Toolbox) Tier(item string) int { return tb.tierOf[item] }

// BestToolTier returns the highest tier of family found in inv.
func (tb *Toolbox) BestToolTier(inv map[string]int, family ToolFamily) int {
	for _, t := range tb.byFam[family] {
		if inv[t.item] > 0 {
			return t.tier
		}
	}
	return 0
}

// MineParamsForTier returns how many ticks of primary action break a block of the
// given hardness with a tool of tier (0 = hand or wrong tool), and the stamina cost.
func MineParamsForTier(hardness, tier int) (workNeeded int, staminaCost int) {
	if hardness <= 0 {
		return 1, 0
	}
	switch tier {
	case 3:
		workNeeded, staminaCost = 1, 9
	case 2:
		workNeeded, staminaCost = 2, 11
	case 1:
		workNeeded, staminaCost = 3, 13
	default:
		workNeeded, staminaCost = 4, 15
	}
	return workNeeded * hardness, staminaCost
}
