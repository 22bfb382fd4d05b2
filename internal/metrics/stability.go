package metrics

import (
	"math"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

// Stability is the fraction of observed dumps in which every position and
// velocity component was finite. Singular pairs (softening 0 with coincident
// particles) or non-positive masses show up here as a value below 1.
type Stability struct {
	name       string
	violations int
	samples    int
}

func NewStability() *Stability {
	return &Stability{name: "stability"}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(step int, t float64, sys *physics.System) {
	s.samples++
	for _, p := range sys.Particles {
		if !finiteVec(p.Pos) || !finiteVec(p.Vel) {
			s.violations++
			break
		}
	}
}

func finiteVec(v physics.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Defaults returns the metrics recorded for every CLI run.
func Defaults(g *physics.Gravity) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergyDrift(g),
		NewMomentumDrift(),
		NewAngularMomentumDrift(),
		NewStability(),
	}
}
