package metrics

import (
	"math"

	"github.com/san-kum/nbodysim/internal/physics"
)

// EnergyDrift tracks the largest relative deviation of total energy from its
// first observed value.
type EnergyDrift struct {
	name          string
	gravity       *physics.Gravity
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(g *physics.Gravity) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: g,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(step int, t float64, s *physics.System) {
	energy := e.gravity.Energy(s)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

// Current returns the most recently observed total energy.
func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift tracks the largest change of total momentum relative to the
// Σ m·|v| of the first observation.
type MomentumDrift struct {
	name     string
	initial  physics.Vec3
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(step int, t float64, s *physics.System) {
	p := physics.Momentum(s)
	if m.samples == 0 {
		m.initial = p
		m.scale = physics.MomentumScale(s)
	}
	m.samples++

	if m.scale != 0 {
		m.maxDrift = math.Max(m.maxDrift, p.Sub(m.initial).Len()/m.scale)
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = physics.Vec3{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}

// AngularMomentumDrift tracks the largest change of total angular momentum
// about the origin, relative to Σ |r × m·v| of the first observation.
type AngularMomentumDrift struct {
	name     string
	initial  physics.Vec3
	scale    float64
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift() *AngularMomentumDrift {
	return &AngularMomentumDrift{name: "angular_momentum_drift"}
}

func (a *AngularMomentumDrift) Name() string { return a.name }

func (a *AngularMomentumDrift) Observe(step int, t float64, s *physics.System) {
	l := physics.AngularMomentum(s)
	if a.samples == 0 {
		a.initial = l
		a.scale = physics.AngularMomentumScale(s)
	}
	a.samples++

	if a.scale != 0 {
		a.maxDrift = math.Max(a.maxDrift, l.Sub(a.initial).Len()/a.scale)
	}
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() {
	a.initial = physics.Vec3{}
	a.scale = 0
	a.maxDrift = 0
	a.samples = 0
}

// Samples counts observations, useful for checking dump cadence.
type Samples struct {
	count int
}

func NewSamples() *Samples { return &Samples{} }

func (c *Samples) Name() string                                   { return "samples" }
func (c *Samples) Observe(step int, t float64, s *physics.System) { c.count++ }
func (c *Samples) Value() float64                                 { return float64(c.count) }
func (c *Samples) Reset()                                         { c.count = 0 }
