package tuning

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Setting keys and prefixes read by the rating engine.
const (
	PointsPrefix  = "mine_points_"
	FactorPrefix  = "mine_factor_"
	KeyDoubleAdd  = "mine_double_add"
	KeyRandomness = "mine_randomness"
)

// Settings is a flat key -> number table loaded from settings.yaml. It is read-only
// after construction.
type Settings struct {
	values map[string]float64
	keys   []string
}

func NewSettings(values map[string]float64) *Settings {
	s := &Settings{values: make(map[string]float64, len(values))}
	for k, v := range values {
		s.values[k] = v
		s.keys = append(s.keys, k)
	}
	sort.Strings(s.keys)
	return s
}

func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSettings(raw)
}

func ParseSettings(raw []byte) (*Settings, error) {
	if err := validateYAML(settingsSchema, "settings.yaml", raw); err != nil {
		return nil, err
	}
	values := map[string]float64{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, NewConfigError("settings.yaml", err)
	}
	return NewSettings(values), nil
}

// GetFloat returns the value for key clamped to [min, max], or def when unset.
func (s *Settings) GetFloat(key string, def, min, max float64) float64 {
	v, ok := s.values[key]
	if !ok {
		v = def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Keys returns every configured key in sorted order.
func (s *Settings) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Values returns a copy of the raw table.
func (s *Settings) Values() map[string]float64 {
	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
