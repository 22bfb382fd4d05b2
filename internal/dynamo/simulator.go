package dynamo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/nbodysim/internal/compute"
	"github.com/san-kum/nbodysim/internal/logging"
	"github.com/san-kum/nbodysim/internal/physics"
)

type Simulator struct {
	params     Params
	gravity    *physics.Gravity
	integrator *physics.SymplecticEuler
	sys        *physics.System
	phase      Phase
	step       int
	dumps      int
	sinks      []Sink
	metrics    []Metric
	log        logging.Logger

	initialEnergy   float64
	initialMomentum physics.Vec3
	momentumScale   float64
	started         time.Time
}

func New(params Params) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	grav := physics.NewGravity(params.G, params.Softening)
	if params.Workers > 1 {
		grav.Kernel = compute.NewBackend(params.Workers)
	}

	return &Simulator{
		params:     params,
		gravity:    grav,
		integrator: physics.NewSymplecticEuler(),
		phase:      Uninitialized,
		sinks:      make([]Sink, 0),
		metrics:    make([]Metric, 0),
		log:        logging.NoOp{},
	}, nil
}

func (s *Simulator) AddSink(k Sink)     { s.sinks = append(s.sinks, k) }
func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

func (s *Simulator) SetLogger(l logging.Logger) {
	if l == nil {
		l = logging.NoOp{}
	}
	s.log = l
}

func (s *Simulator) Params() Params            { return s.params }
func (s *Simulator) Phase() Phase              { return s.phase }
func (s *Simulator) StepCount() int            { return s.step }
func (s *Simulator) System() *physics.System   { return s.sys }
func (s *Simulator) Gravity() *physics.Gravity { return s.gravity }

// Done reports whether a running simulation has taken every configured step.
func (s *Simulator) Done() bool {
	return s.phase == Running && s.step >= s.params.Steps
}

// Time returns the simulated time elapsed since step 0.
func (s *Simulator) Time() float64 { return float64(s.step) * s.params.Dt }

// Initialize hands the store to the simulator. It is only allowed once.
func (s *Simulator) Initialize(sys *physics.System) error {
	if s.phase != Uninitialized {
		return fmt.Errorf("%w: initialize while %s", ErrPhase, s.phase)
	}
	if sys == nil || sys.Len() == 0 {
		return ErrEmptySystem
	}
	s.sys = sys
	s.phase = Initialized
	return nil
}

// Start emits the step-0 state and moves to Running.
func (s *Simulator) Start() error {
	switch s.phase {
	case Uninitialized:
		return ErrNotInitialized
	case Initialized:
	default:
		return fmt.Errorf("%w: start while %s", ErrPhase, s.phase)
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	s.initialEnergy = s.gravity.Energy(s.sys)
	s.initialMomentum = physics.Momentum(s.sys)
	s.momentumScale = physics.MomentumScale(s.sys)
	s.started = time.Now()
	s.phase = Running

	s.log.Infof("run started: %d particles, dt=%g, steps=%d, dump every %d",
		s.sys.Len(), s.params.Dt, s.params.Steps, s.params.DumpEvery)

	return s.dump()
}

// Step computes forces for the current configuration, integrates, and dumps
// the result when the new step count is a multiple of the dump interval.
// It refuses to go past the configured step count.
func (s *Simulator) Step() error {
	if s.phase != Running {
		return fmt.Errorf("%w: step while %s", ErrPhase, s.phase)
	}
	if s.Done() {
		return fmt.Errorf("%w: all %d steps taken", ErrPhase, s.params.Steps)
	}
	if err := s.gravity.Apply(s.sys); err != nil {
		return &SimulationError{Step: s.step + 1, Wrapped: err}
	}
	s.integrator.Step(s.sys, s.params.Dt)
	s.step++

	if s.step%s.params.DumpEvery == 0 {
		return s.dump()
	}
	return nil
}

func (s *Simulator) dump() error {
	s.log.Debugf("dump at step %d", s.step)
	for _, m := range s.metrics {
		m.Observe(s.step, s.Time(), s.sys)
	}
	for _, k := range s.sinks {
		if err := k.Dump(s.step, s.sys); err != nil {
			return &SimulationError{Step: s.step, Wrapped: err}
		}
	}
	s.dumps++
	return nil
}

// Finish moves to Finished and reports the run.
func (s *Simulator) Finish() (*Result, error) {
	if s.phase != Running {
		return nil, fmt.Errorf("%w: finish while %s", ErrPhase, s.phase)
	}
	s.phase = Finished

	result := &Result{
		Steps:   s.step,
		Dumps:   s.dumps,
		Time:    s.Time(),
		Metrics: make(map[string]float64, len(s.metrics)),
		Elapsed: time.Since(s.started),
	}
	if s.initialEnergy != 0 {
		result.EnergyDrift = math.Abs(s.gravity.Energy(s.sys)-s.initialEnergy) / math.Abs(s.initialEnergy)
	}
	if s.momentumScale != 0 {
		result.MomentumDrift = physics.Momentum(s.sys).Sub(s.initialMomentum).Len() / s.momentumScale
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Infof("run finished: %d steps, %d dumps in %v", result.Steps, result.Dumps, result.Elapsed)
	return result, nil
}

// Run executes the whole configured step count. The context only models the
// operator interrupting the process; there is no other early exit.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	if err := s.Start(); err != nil {
		return nil, err
	}

	for s.step < s.params.Steps {
		select {
		case <-ctx.Done():
			return nil, &SimulationError{Step: s.step, Wrapped: fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())}
		default:
		}

		if err := s.Step(); err != nil {
			return nil, err
		}
	}

	return s.Finish()
}
