package physics

// SymplecticEuler advances a system by one semi-implicit Euler step: velocity
// first from the accumulated force, then position from the updated velocity.
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

// Step expects the forces of the current configuration to be in place.
func (SymplecticEuler) Step(s *System, dt float64) {
	for i := range s.Particles {
		p := &s.Particles[i]
		acc := p.Force.Mul(1.0 / p.Mass)
		p.Vel = p.Vel.Add(acc.Mul(dt))
		p.Pos = p.Pos.Add(p.Vel.Mul(dt))
	}
}
