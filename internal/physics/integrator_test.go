package physics

import (
	"math"
	"testing"
)

func TestSymplecticEuler_UsesUpdatedVelocity(t *testing.T) {
	s := NewSystem(Particle{Mass: 2, Pos: V(0, 0, 0), Vel: V(1, 0, 0), Force: V(4, 0, -2)})

	NewSymplecticEuler().Step(s, 0.5)

	p := s.Particles[0]
	if p.Vel != V(2, 0, -0.5) {
		t.Errorf("velocity: got %v, want [2 0 -0.5]", p.Vel)
	}
	// Explicit Euler would give 0.5 here.
	if p.Pos != V(1, 0, -0.25) {
		t.Errorf("position: got %v, want [1 0 -0.25]", p.Pos)
	}
	if p.Force != V(4, 0, -2) {
		t.Errorf("integrator must not touch forces, got %v", p.Force)
	}
}

func TestSymplecticEuler_PreservesOrder(t *testing.T) {
	s := NewSystem(
		Particle{Mass: 1, Pos: V(1, 0, 0)},
		Particle{Mass: 2, Pos: V(2, 0, 0)},
		Particle{Mass: 3, Pos: V(3, 0, 0)},
	)
	NewSymplecticEuler().Step(s, 1)
	for i, p := range s.Particles {
		if p.Mass != float64(i+1) {
			t.Errorf("particle %d has mass %v", i, p.Mass)
		}
	}
}

func TestSymplecticEuler_HarmonicEnergyBounded(t *testing.T) {
	// Spring force fed through the force accumulator: symplectic Euler keeps
	// the energy error bounded over many periods.
	s := NewSystem(Particle{Mass: 1, Pos: V(1, 0, 0)})
	integ := NewSymplecticEuler()
	dt := 0.01

	energy := func() float64 {
		p := s.Particles[0]
		return 0.5*NormSq(p.Vel) + 0.5*NormSq(p.Pos)
	}
	e0 := energy()
	maxDrift := 0.0
	for i := 0; i < 100000; i++ {
		s.Particles[0].Force = s.Particles[0].Pos.Mul(-1)
		integ.Step(s, dt)
		maxDrift = math.Max(maxDrift, math.Abs(energy()-e0)/e0)
	}
	if maxDrift > 0.01 {
		t.Errorf("energy drift %g exceeds bound", maxDrift)
	}
}
