package config

import (
	"sort"

	"github.com/san-kum/nbodysim/internal/initial"
)

var Presets = map[string]*Config{
	"earth-year": {
		Init: "sun-earth-moon", Dt: 3600, Steps: 8760, DumpEvery: 24,
	},
	"earth-month": {
		Init: "sun-earth-moon", Dt: 600, Steps: 4320, DumpEvery: 36,
	},
	"jupiter-decade": {
		Init: "sun-jupiter", Dt: 86400, Steps: 3650, DumpEvery: 10,
	},
	"cluster": {
		Init: "64", Dt: 3600, Steps: 2000, DumpEvery: 20, Workers: 4,
	},
}

// GetPreset returns a copy of the named preset with every key it does not
// set filled from DefaultConfig.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Init = p.Init
	cfg.Dt = p.Dt
	cfg.Steps = p.Steps
	cfg.DumpEvery = p.DumpEvery
	cfg.Workers = p.Workers
	if p.Softening != 0 {
		cfg.Softening = p.Softening
	}
	if p.G != 0 {
		cfg.G = p.G
	}
	if p.Seed != 0 {
		cfg.Seed = p.Seed
	}
	if p.Out != "" {
		cfg.Out = p.Out
	}
	if p.Random != (initial.RandomRanges{}) {
		cfg.Random = p.Random
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
