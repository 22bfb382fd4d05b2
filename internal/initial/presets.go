package initial

import (
	"fmt"
	"sort"

	"github.com/san-kum/nbodysim/internal/physics"
)

// SI units throughout: kg, m, m/s.
const (
	SunMass     = 1.9891e30
	EarthMass   = 5.972e24
	MoonMass    = 7.342e22
	JupiterMass = 1.898e27

	EarthOrbit   = 1.496e11
	EarthSpeed   = 29780.0
	MoonOrbit    = 3.844e8
	MoonSpeed    = 1022.0
	JupiterOrbit = 7.785e11
	JupiterSpeed = 13070.0
)

var presets = map[string]func() []physics.Particle{
	"sun-earth-moon": func() []physics.Particle {
		return []physics.Particle{
			{Mass: SunMass},
			{Mass: EarthMass, Pos: physics.V(EarthOrbit, 0, 0), Vel: physics.V(0, EarthSpeed, 0)},
			{Mass: MoonMass, Pos: physics.V(EarthOrbit+MoonOrbit, 0, 0), Vel: physics.V(0, EarthSpeed+MoonSpeed, 0)},
		}
	},
	"sun-earth": func() []physics.Particle {
		return []physics.Particle{
			{Mass: SunMass},
			{Mass: EarthMass, Pos: physics.V(EarthOrbit, 0, 0), Vel: physics.V(0, EarthSpeed, 0)},
		}
	},
	"sun-jupiter": func() []physics.Particle {
		return []physics.Particle{
			{Mass: SunMass},
			{Mass: JupiterMass, Pos: physics.V(JupiterOrbit, 0, 0), Vel: physics.V(0, JupiterSpeed, 0)},
		}
	},
}

// Preset loads one of the built-in configurations by name.
type Preset struct {
	Name string
}

func (p Preset) Load() (*physics.System, error) {
	build, ok := presets[p.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, p.Name, ListPresets())
	}
	return &physics.System{Particles: build()}, nil
}

func (p Preset) String() string { return "preset:" + p.Name }

// IsPreset reports whether name is a built-in preset.
func IsPreset(name string) bool {
	_, ok := presets[name]
	return ok
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
