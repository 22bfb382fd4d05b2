package dynamo

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/nbodysim/internal/physics"
)

type Phase int

const (
	Uninitialized Phase = iota
	Initialized
	Running
	Finished
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Params is fixed for the lifetime of a run.
type Params struct {
	G         float64
	Softening float64
	Dt        float64
	Steps     int
	DumpEvery int
	Seed      int64

	// Workers > 1 enables the parallel force kernel.
	Workers int
}

func DefaultParams() Params {
	return Params{
		G:         physics.DefaultG,
		Softening: physics.DefaultSoftening,
		Dt:        1.0,
		Steps:     1,
		DumpEvery: 1,
		Seed:      42,
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (p Params) Validate() error {
	switch {
	case !finite(p.G):
		return fmt.Errorf("%w: G must be finite, got %g", ErrInvalidParams, p.G)
	case !finite(p.Softening) || p.Softening < 0:
		return fmt.Errorf("%w: softening must be finite and >= 0, got %g", ErrInvalidParams, p.Softening)
	case !finite(p.Dt):
		return fmt.Errorf("%w: dt must be finite, got %g", ErrInvalidParams, p.Dt)
	case p.Steps < 0:
		return fmt.Errorf("%w: steps must be >= 0, got %d", ErrInvalidParams, p.Steps)
	case p.DumpEvery <= 0:
		return fmt.Errorf("%w: dump interval must be positive, got %d", ErrInvalidParams, p.DumpEvery)
	case p.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidParams, p.Workers)
	}
	return nil
}

// Sink receives the store at every dump step. It must not keep the pointer
// past the call.
type Sink interface {
	Dump(step int, s *physics.System) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(step int, s *physics.System) error

func (f SinkFunc) Dump(step int, s *physics.System) error { return f(step, s) }

// Metric observes the store at every dump step.
type Metric interface {
	Name() string
	Observe(step int, t float64, s *physics.System)
	Value() float64
	Reset()
}

type Result struct {
	Steps         int
	Dumps         int
	Time          float64
	Metrics       map[string]float64
	EnergyDrift   float64
	MomentumDrift float64
	Elapsed       time.Duration
}
