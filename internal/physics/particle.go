package physics

import "fmt"

// Particle is a point mass. Force is the net force of the current step only and
// is overwritten by every force pass. Mass must be positive; the integrator
// divides by it.
type Particle struct {
	Mass  float64
	Pos   Vec3
	Vel   Vec3
	Force Vec3
}

func (p Particle) String() string {
	return fmt.Sprintf("m: %.4g p: [%.4g, %.4g, %.4g] v: [%.4g, %.4g, %.4g]",
		p.Mass, p.Pos[0], p.Pos[1], p.Pos[2], p.Vel[0], p.Vel[1], p.Vel[2])
}

// System is the ordered particle store of a run. The order is the order the
// particles were added in and is kept for the whole run.
type System struct {
	Particles []Particle
}

func NewSystem(particles ...Particle) *System {
	ps := make([]Particle, len(particles))
	copy(ps, particles)
	return &System{Particles: ps}
}

func (s *System) Len() int { return len(s.Particles) }

func (s *System) Add(p Particle) {
	s.Particles = append(s.Particles, p)
}

// Clone returns a deep copy of the store.
func (s *System) Clone() *System {
	return NewSystem(s.Particles...)
}

// ResetForces zeroes every force accumulator.
func (s *System) ResetForces() {
	for i := range s.Particles {
		s.Particles[i].Force = Vec3{}
	}
}

// TotalMass returns the sum of all particle masses.
func (s *System) TotalMass() float64 {
	m := 0.0
	for _, p := range s.Particles {
		m += p.Mass
	}
	return m
}
