package tuning

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz       int `yaml:"tick_rate_hz"`
	TaskTimeoutTicks int `yaml:"task_timeout_ticks"`
	// TorchEvery places a torch after this many mined targets; 0 disables torches.
	TorchEvery int `yaml:"torch_every"`

	Search SearchTuning `yaml:"search"`
	World  WorldTuning  `yaml:"world"`
	Agent  AgentTuning  `yaml:"agent"`
	Trace  TraceTuning  `yaml:"trace"`
	Serve  ServeTuning  `yaml:"serve"`
}

type SearchTuning struct {
	MaxDistance int `yaml:"max_distance"`
	MaxNodes    int `yaml:"max_nodes"`
}

type WorldTuning struct {
	Seed             int64 `yaml:"seed"`
	BoundaryR        int   `yaml:"boundary_r"`
	Height           int   `yaml:"height"`
	OreScalePermille int   `yaml:"ore_scale_permille"`
}

type AgentTuning struct {
	Spawn     [3]int      `yaml:"spawn"`
	Inventory []ItemStack `yaml:"inventory"`
	// MaxTicks stops the run; 0 runs until the context is cancelled.
	MaxTicks int `yaml:"max_ticks"`
	// MaxIdleCycles stops the run after this many planning cycles in a row found
	// no target; 0 never stops.
	MaxIdleCycles int `yaml:"max_idle_cycles"`
}

type ItemStack struct {
	Item  string `yaml:"item" json:"item"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
	Count int    `yaml:"count" json:"count"`
}

// ServeTuning holds listen addresses; empty disables the listener.
type ServeTuning struct {
	ObserverAddr string `yaml:"observer_addr"`
	MetricsAddr  string `yaml:"metrics_addr"`
	// ViewRadius and ViewEvery shape the voxel view pushed to observers; a zero
	// ViewEvery sends none.
	ViewRadius int `yaml:"view_radius"`
	ViewEvery  int `yaml:"view_every"`
}

type TraceTuning struct {
	Dir     string `yaml:"dir"`
	IndexDB string `yaml:"index_db"`
}

func Default() Tuning {
	return Tuning{
		TickRateHz:       20,
		TaskTimeoutTicks: 200,
		TorchEvery:       8,
		Search: SearchTuning{
			MaxDistance: 64,
			MaxNodes:    20000,
		},
		World: WorldTuning{
			Seed:             1337,
			BoundaryR:        96,
			Height:           32,
			OreScalePermille: 1000,
		},
		Agent: AgentTuning{
			Spawn: [3]int{0, 20, 0},
			Inventory: []ItemStack{
				{Item: "voxel:stone_pickaxe", Count: 1},
				{Item: "voxel:stone_shovel", Count: 1},
				{Item: "voxel:torch", Count: 64},
			},
			MaxTicks:      20000,
			MaxIdleCycles: 20,
		},
		Serve: ServeTuning{
			ViewRadius: 8,
			ViewEvery:  20,
		},
	}
}

// Load reads tuning.yaml. Missing fields keep their Default() values.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := validateYAML(tuningSchema, "tuning.yaml", raw); err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, NewConfigError("tuning.yaml", err)
	}
	return t, nil
}
