package initial

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/nbodysim/internal/physics"
)

// RandomRanges bounds the uniform draws of random synthesis. Positions and
// velocities are drawn per component from [-span, span].
type RandomRanges struct {
	MassMin float64 `yaml:"mass_min"`
	MassMax float64 `yaml:"mass_max"`
	PosSpan float64 `yaml:"pos_span"`
	VelSpan float64 `yaml:"vel_span"`
}

func DefaultRanges() RandomRanges {
	return RandomRanges{
		MassMin: 1e20,
		MassMax: 1e26,
		PosSpan: 1e11,
		VelSpan: 1e3,
	}
}

func (r RandomRanges) Validate() error {
	if r.MassMin <= 0 || r.MassMax < r.MassMin {
		return fmt.Errorf("initial: mass range [%g, %g] must be positive and ordered", r.MassMin, r.MassMax)
	}
	if r.PosSpan < 0 || r.VelSpan < 0 {
		return fmt.Errorf("initial: spans must be non-negative (pos %g, vel %g)", r.PosSpan, r.VelSpan)
	}
	return nil
}

// Random synthesises N particles. The same seed always yields the same store.
type Random struct {
	N      int
	Seed   int64
	Ranges RandomRanges
}

func (r Random) Load() (*physics.System, error) {
	if r.N <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, r.N)
	}
	if err := r.Ranges.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(r.Seed))
	uniform := func(lo, hi float64) float64 { return lo + (hi-lo)*rng.Float64() }
	rg := r.Ranges

	s := &physics.System{Particles: make([]physics.Particle, r.N)}
	for i := range s.Particles {
		p := &s.Particles[i]
		p.Mass = uniform(rg.MassMin, rg.MassMax)
		p.Pos = physics.V(
			uniform(-rg.PosSpan, rg.PosSpan),
			uniform(-rg.PosSpan, rg.PosSpan),
			uniform(-rg.PosSpan, rg.PosSpan),
		)
		p.Vel = physics.V(
			uniform(-rg.VelSpan, rg.VelSpan),
			uniform(-rg.VelSpan, rg.VelSpan),
			uniform(-rg.VelSpan, rg.VelSpan),
		)
	}
	return s, nil
}

func (r Random) String() string { return fmt.Sprintf("random:%d(seed=%d)", r.N, r.Seed) }
