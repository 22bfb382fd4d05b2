package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/snapshot"
)

// ReturnError measures how close a body comes back to its starting point.
// Distances are taken relative to the body's starting distance from the
// initial centre of mass. Only frames after the body's farthest excursion
// from the start are considered, so the frames right after the start do not
// count as a return. The index of the closest frame is returned with it.
func ReturnError(frames []snapshot.Frame, body int) (float64, int, error) {
	if err := checkBody(frames, body); err != nil {
		return 0, 0, err
	}

	start := frames[0].System.Particles[body].Pos
	radius := start.Sub(physics.CenterOfMass(frames[0].System)).Len()
	if radius == 0 {
		return 0, 0, fmt.Errorf("analysis: body %d starts at the centre of mass", body)
	}
	if len(frames) < 2 {
		return 0, 0, fmt.Errorf("%w: need at least two frames", ErrNoFrames)
	}

	far, farIdx := -1.0, 0
	for i, f := range frames {
		if d := f.System.Particles[body].Pos.Sub(start).Len(); d > far {
			far, farIdx = d, i
		}
	}

	best, bestIdx := math.Inf(1), len(frames)-1
	for i := farIdx; i < len(frames); i++ {
		if d := frames[i].System.Particles[body].Pos.Sub(start).Len(); d < best {
			best, bestIdx = d, i
		}
	}
	return best / radius, frames[bestIdx].Index, nil
}

// OrbitalPeriod estimates the period of a body from the angle it sweeps in the
// x-y plane around the initial centre of mass. It returns 0 when the body
// sweeps no measurable angle.
func OrbitalPeriod(frames []snapshot.Frame, body int, sampleDt float64) (float64, error) {
	if err := checkBody(frames, body); err != nil {
		return 0, err
	}
	if len(frames) < 2 {
		return 0, nil
	}

	com := physics.CenterOfMass(frames[0].System)
	angle := func(f snapshot.Frame) float64 {
		r := f.System.Particles[body].Pos.Sub(com)
		return math.Atan2(r[1], r[0])
	}

	swept := 0.0
	prev := angle(frames[0])
	for _, f := range frames[1:] {
		a := angle(f)
		d := a - prev
		switch {
		case d > math.Pi:
			d -= 2 * math.Pi
		case d < -math.Pi:
			d += 2 * math.Pi
		}
		swept += d
		prev = a
	}

	if math.Abs(swept) < 1e-9 {
		return 0, nil
	}
	elapsed := float64(frames[len(frames)-1].Index-frames[0].Index) * sampleDt
	return 2 * math.Pi * elapsed / math.Abs(swept), nil
}

type BodySummary struct {
	Body        int
	Mass        float64
	MinRadius   float64
	MaxRadius   float64
	MeanSpeed   float64
	Period      float64
	ReturnError float64
}

// Summarize reports every body of the first frame. Radii are distances from
// the initial centre of mass. ReturnError is NaN for bodies that start at the
// centre of mass.
func Summarize(frames []snapshot.Frame, sampleDt float64) ([]BodySummary, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	com := physics.CenterOfMass(frames[0].System)
	n := frames[0].System.Len()
	out := make([]BodySummary, n)

	for b := 0; b < n; b++ {
		if err := checkBody(frames, b); err != nil {
			return nil, err
		}

		s := BodySummary{
			Body:      b,
			Mass:      frames[0].System.Particles[b].Mass,
			MinRadius: math.Inf(1),
		}
		for _, f := range frames {
			p := f.System.Particles[b]
			r := p.Pos.Sub(com).Len()
			s.MinRadius = math.Min(s.MinRadius, r)
			s.MaxRadius = math.Max(s.MaxRadius, r)
			s.MeanSpeed += p.Vel.Len()
		}
		s.MeanSpeed /= float64(len(frames))

		period, err := OrbitalPeriod(frames, b, sampleDt)
		if err != nil {
			return nil, err
		}
		s.Period = period

		s.ReturnError = math.NaN()
		if rerr, _, err := ReturnError(frames, b); err == nil {
			s.ReturnError = rerr
		}
		out[b] = s
	}
	return out, nil
}
