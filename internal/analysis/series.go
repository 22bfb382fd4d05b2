package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/snapshot"
)

var (
	ErrNoFrames     = errors.New("analysis: no frames")
	ErrBodyRange    = errors.New("analysis: body index out of range")
	ErrUnknownField = errors.New("analysis: unknown field")
)

// Field selects a scalar of a particle.
type Field string

const (
	FieldX     Field = "x"
	FieldY     Field = "y"
	FieldZ     Field = "z"
	FieldVX    Field = "vx"
	FieldVY    Field = "vy"
	FieldVZ    Field = "vz"
	FieldFX    Field = "fx"
	FieldFY    Field = "fy"
	FieldFZ    Field = "fz"
	FieldR     Field = "r"
	FieldSpeed Field = "speed"
	FieldForce Field = "force"
)

var fields = map[Field]func(p physics.Particle) float64{
	FieldX:     func(p physics.Particle) float64 { return p.Pos[0] },
	FieldY:     func(p physics.Particle) float64 { return p.Pos[1] },
	FieldZ:     func(p physics.Particle) float64 { return p.Pos[2] },
	FieldVX:    func(p physics.Particle) float64 { return p.Vel[0] },
	FieldVY:    func(p physics.Particle) float64 { return p.Vel[1] },
	FieldVZ:    func(p physics.Particle) float64 { return p.Vel[2] },
	FieldFX:    func(p physics.Particle) float64 { return p.Force[0] },
	FieldFY:    func(p physics.Particle) float64 { return p.Force[1] },
	FieldFZ:    func(p physics.Particle) float64 { return p.Force[2] },
	FieldR:     func(p physics.Particle) float64 { return p.Pos.Len() },
	FieldSpeed: func(p physics.Particle) float64 { return p.Vel.Len() },
	FieldForce: func(p physics.Particle) float64 { return p.Force.Len() },
}

func ParseField(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := fields[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

func checkBody(frames []snapshot.Frame, body int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	for _, f := range frames {
		if body < 0 || body >= f.System.Len() {
			return fmt.Errorf("%w: %d (frame %d has %d particles)", ErrBodyRange, body, f.Index, f.System.Len())
		}
	}
	return nil
}

// Series returns field of the given body for every frame.
func Series(frames []snapshot.Frame, body int, field Field) ([]float64, error) {
	get, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if err := checkBody(frames, body); err != nil {
		return nil, err
	}

	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = get(f.System.Particles[body])
	}
	return out, nil
}

// Times returns the simulated time of every frame.
func Times(frames []snapshot.Frame, sampleDt float64) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = float64(f.Index) * sampleDt
	}
	return out
}
