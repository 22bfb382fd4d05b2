package physics

import "math"

// DefaultG is the gravitational constant in m³/(kg·s²).
const DefaultG = 6.674e-11

// DefaultSoftening is the softening length in metres. Its square is added to
// every squared pair separation.
const DefaultSoftening = 1e3

// PairKernel computes the forces of a whole system into out, which holds three
// components per particle. It is implemented by the compute backends.
type PairKernel interface {
	Forces(pos, masses []float64, g, soft2 float64, out []float64) error
}

// Gravity is the Newtonian pairwise force engine.
//
// Softening 0 leaves coincident particles singular; the resulting Inf/NaN
// values propagate into the state.
type Gravity struct {
	G         float64
	Softening float64

	// Kernel, when set, replaces the serial pair loop.
	Kernel PairKernel

	pos, masses, out []float64
}

func NewGravity(g, softening float64) *Gravity {
	return &Gravity{G: g, Softening: softening}
}

// Apply overwrites every particle's force with the net gravitational force
// exerted on it by all other particles.
func (g *Gravity) Apply(s *System) error {
	if g.Kernel != nil && s.Len() > 1 {
		return g.applyKernel(s)
	}
	g.applySerial(s)
	return nil
}

// applySerial visits unordered pairs in index order, so the summation order
// per particle is fixed and results are reproducible.
func (g *Gravity) applySerial(s *System) {
	s.ResetForces()
	ps := s.Particles
	soft2 := g.Softening * g.Softening

	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			r := ps[j].Pos.Sub(ps[i].Pos)
			r2 := NormSq(r) + soft2
			invR := 1.0 / math.Sqrt(r2)
			invR3 := invR * invR * invR
			coef := g.G * ps[i].Mass * ps[j].Mass * invR3
			f := r.Mul(coef)

			ps[i].Force = ps[i].Force.Add(f)
			ps[j].Force = ps[j].Force.Sub(f)
		}
	}
}

func (g *Gravity) applyKernel(s *System) error {
	n := s.Len()
	if len(g.masses) != n {
		g.pos = make([]float64, 3*n)
		g.masses = make([]float64, n)
		g.out = make([]float64, 3*n)
	}
	for i, p := range s.Particles {
		g.pos[3*i], g.pos[3*i+1], g.pos[3*i+2] = p.Pos[0], p.Pos[1], p.Pos[2]
		g.masses[i] = p.Mass
	}
	if err := g.Kernel.Forces(g.pos, g.masses, g.G, g.Softening*g.Softening, g.out); err != nil {
		return err
	}
	for i := range s.Particles {
		s.Particles[i].Force = Vec3{g.out[3*i], g.out[3*i+1], g.out[3*i+2]}
	}
	return nil
}

// PotentialEnergy returns the softened gravitational potential energy of the
// system, consistent with the force law used by Apply.
func (g *Gravity) PotentialEnergy(s *System) float64 {
	ps := s.Particles
	soft2 := g.Softening * g.Softening
	pe := 0.0
	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			r := math.Sqrt(NormSq(ps[j].Pos.Sub(ps[i].Pos)) + soft2)
			pe -= g.G * ps[i].Mass * ps[j].Mass / r
		}
	}
	return pe
}

// Energy returns kinetic plus potential energy.
func (g *Gravity) Energy(s *System) float64 {
	return KineticEnergy(s) + g.PotentialEnergy(s)
}
