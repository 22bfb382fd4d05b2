package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

type SweepPoint struct {
	Dt            float64
	Steps         int
	EnergyDrift   float64
	MomentumDrift float64
}

// DtSweep runs the same initial store for the same simulated duration at each
// time step and reports the conservation error of each run. base supplies G,
// softening and workers; its step fields are replaced.
func DtSweep(ctx context.Context, sys *physics.System, base dynamo.Params, dts []float64, duration float64) ([]SweepPoint, error) {
	out := make([]SweepPoint, 0, len(dts))

	for _, dt := range dts {
		if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
			return nil, fmt.Errorf("%w: sweep dt %g", dynamo.ErrInvalidParams, dt)
		}

		p := base
		p.Dt = dt
		p.Steps = int(math.Round(duration / dt))
		p.DumpEvery = max(p.Steps, 1)

		sim, err := dynamo.New(p)
		if err != nil {
			return nil, err
		}
		if err := sim.Initialize(sys.Clone()); err != nil {
			return nil, err
		}
		res, err := sim.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("dt %g: %w", dt, err)
		}

		out = append(out, SweepPoint{
			Dt:            dt,
			Steps:         p.Steps,
			EnergyDrift:   res.EnergyDrift,
			MomentumDrift: res.MomentumDrift,
		})
	}
	return out, nil
}
