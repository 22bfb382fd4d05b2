package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/nbodysim/internal/physics"
)

// LyapunovExponent estimates the largest Lyapunov exponent (per unit of
// simulated time) by integrating the store next to a copy whose first particle
// is displaced by perturbation along x. After every step the copy is pulled
// back to the initial separation along the current separation direction.
//
// Separation is measured in positions only. sys is not modified.
func LyapunovExponent(sys *physics.System, grav *physics.Gravity, dt float64, steps int, perturbation float64) (float64, error) {
	if sys == nil || sys.Len() == 0 {
		return 0, errors.New("analysis: empty system")
	}
	if steps <= 0 || dt == 0 {
		return 0, errors.New("analysis: need a positive step count and non-zero dt")
	}
	if perturbation <= 0 {
		return 0, errors.New("analysis: perturbation must be positive")
	}

	a := sys.Clone()
	b := sys.Clone()
	b.Particles[0].Pos[0] += perturbation
	integ := physics.NewSymplecticEuler()

	sumLog := 0.0
	for step := 0; step < steps; step++ {
		for _, s := range []*physics.System{a, b} {
			if err := grav.Apply(s); err != nil {
				return 0, err
			}
			integ.Step(s, dt)
		}

		sep := separation(a, b)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			continue
		}
		sumLog += math.Log(sep / perturbation)

		scale := perturbation / sep
		for i := range b.Particles {
			pa, pb := &a.Particles[i], &b.Particles[i]
			pb.Pos = pa.Pos.Add(pb.Pos.Sub(pa.Pos).Mul(scale))
			pb.Vel = pa.Vel.Add(pb.Vel.Sub(pa.Vel).Mul(scale))
		}
	}

	return sumLog / (float64(steps) * math.Abs(dt)), nil
}

func separation(a, b *physics.System) float64 {
	sum := 0.0
	for i := range a.Particles {
		sum += physics.NormSq(b.Particles[i].Pos.Sub(a.Particles[i].Pos))
	}
	return math.Sqrt(sum)
}
