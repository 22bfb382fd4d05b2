package dynamo_test

import (
	"bytes"
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/initial"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/snapshot"
)

type recorder struct {
	steps  []int
	states []*physics.System
}

func (r *recorder) Dump(step int, s *physics.System) error {
	r.steps = append(r.steps, step)
	r.states = append(r.states, s.Clone())
	return nil
}

func params(steps, dumpEvery int) dynamo.Params {
	p := dynamo.DefaultParams()
	p.G = 1
	p.Softening = 0.01
	p.Dt = 0.01
	p.Steps = steps
	p.DumpEvery = dumpEvery
	return p
}

func triangle() *physics.System {
	return physics.NewSystem(
		physics.Particle{Mass: 1, Pos: physics.V(1, 0, 0), Vel: physics.V(0, 0.5, 0)},
		physics.Particle{Mass: 2, Pos: physics.V(-0.5, 0.8, 0), Vel: physics.V(-0.4, -0.2, 0.1)},
		physics.Particle{Mass: 3, Pos: physics.V(-0.5, -0.8, 0.2), Vel: physics.V(0.3, -0.1, 0)},
	)
}

func runToBuffer(p dynamo.Params, src initial.Source) []byte {
	sys, err := src.Load()
	Expect(err).NotTo(HaveOccurred())

	sim, err := dynamo.New(p)
	Expect(err).NotTo(HaveOccurred())

	var buf bytes.Buffer
	w := snapshot.NewWriter(&buf)
	sim.AddSink(w)
	Expect(sim.Initialize(sys)).To(Succeed())

	_, err = sim.Run(context.Background())
	Expect(err).NotTo(HaveOccurred())
	Expect(w.Flush()).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Simulator", func() {
	Describe("parameters", func() {
		DescribeTable("rejects invalid parameter sets",
			func(mutate func(*dynamo.Params)) {
				p := params(10, 1)
				mutate(&p)
				_, err := dynamo.New(p)
				Expect(err).To(MatchError(dynamo.ErrInvalidParams))
			},
			Entry("zero dump interval", func(p *dynamo.Params) { p.DumpEvery = 0 }),
			Entry("negative dump interval", func(p *dynamo.Params) { p.DumpEvery = -3 }),
			Entry("negative steps", func(p *dynamo.Params) { p.Steps = -1 }),
			Entry("negative softening", func(p *dynamo.Params) { p.Softening = -1e-3 }),
			Entry("NaN dt", func(p *dynamo.Params) { p.Dt = math.NaN() }),
			Entry("infinite G", func(p *dynamo.Params) { p.G = math.Inf(1) }),
			Entry("negative workers", func(p *dynamo.Params) { p.Workers = -2 }),
		)

		It("accepts a negative time step", func() {
			p := params(10, 1)
			p.Dt = -0.01
			_, err := dynamo.New(p)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("phases", func() {
		var sim *dynamo.Simulator

		BeforeEach(func() {
			var err error
			sim, err = dynamo.New(params(4, 2))
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses to run without a particle store", func() {
			Expect(sim.Phase()).To(Equal(dynamo.Uninitialized))
			_, err := sim.Run(context.Background())
			Expect(err).To(MatchError(dynamo.ErrNotInitialized))
		})

		It("refuses an empty store", func() {
			Expect(sim.Initialize(&physics.System{})).To(MatchError(dynamo.ErrEmptySystem))
			Expect(sim.Initialize(nil)).To(MatchError(dynamo.ErrEmptySystem))
			Expect(sim.Phase()).To(Equal(dynamo.Uninitialized))
		})

		It("walks through every phase once", func() {
			Expect(sim.Initialize(triangle())).To(Succeed())
			Expect(sim.Phase()).To(Equal(dynamo.Initialized))
			Expect(sim.Initialize(triangle())).To(MatchError(dynamo.ErrPhase))

			Expect(sim.Step()).To(MatchError(dynamo.ErrPhase))

			Expect(sim.Start()).To(Succeed())
			Expect(sim.Phase()).To(Equal(dynamo.Running))
			Expect(sim.Start()).To(MatchError(dynamo.ErrPhase))

			Expect(sim.Step()).To(Succeed())
			Expect(sim.StepCount()).To(Equal(1))

			res, err := sim.Finish()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(1))
			Expect(sim.Phase()).To(Equal(dynamo.Finished))

			_, err = sim.Run(context.Background())
			Expect(err).To(MatchError(dynamo.ErrPhase))
			Expect(sim.Step()).To(MatchError(dynamo.ErrPhase))
		})

		It("refuses to step past the configured count", func() {
			Expect(sim.Initialize(triangle())).To(Succeed())
			Expect(sim.Start()).To(Succeed())
			for i := 0; i < 4; i++ {
				Expect(sim.Done()).To(BeFalse())
				Expect(sim.Step()).To(Succeed())
			}
			Expect(sim.Done()).To(BeTrue())
			Expect(sim.Step()).To(MatchError(dynamo.ErrPhase))
			Expect(sim.StepCount()).To(Equal(4))

			res, err := sim.Finish()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(4))
			Expect(res.Dumps).To(Equal(3))
			Expect(sim.Done()).To(BeFalse())
		})

		It("has nothing to step when no steps are configured", func() {
			zero, err := dynamo.New(params(0, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(zero.Initialize(triangle())).To(Succeed())
			Expect(zero.Start()).To(Succeed())
			Expect(zero.Done()).To(BeTrue())
			Expect(zero.Step()).To(MatchError(dynamo.ErrPhase))
		})

		It("names its phases", func() {
			Expect(dynamo.Running.String()).To(Equal("running"))
			Expect(dynamo.Phase(9).String()).To(Equal("phase(9)"))
		})
	})

	Describe("dump schedule", func() {
		It("dumps step 0 and every multiple of the interval", func() {
			sim, err := dynamo.New(params(10, 3))
			Expect(err).NotTo(HaveOccurred())
			rec := &recorder{}
			sim.AddSink(rec)
			Expect(sim.Initialize(triangle())).To(Succeed())

			res, err := sim.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.steps).To(Equal([]int{0, 3, 6, 9}))
			Expect(res.Dumps).To(Equal(4))
			Expect(res.Steps).To(Equal(10))
			Expect(res.Time).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("dumps only the initial state when no steps are configured", func() {
			sim, err := dynamo.New(params(0, 1))
			Expect(err).NotTo(HaveOccurred())
			rec := &recorder{}
			sim.AddSink(rec)
			Expect(sim.Initialize(triangle())).To(Succeed())

			_, err = sim.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.steps).To(Equal([]int{0}))
		})

		It("dumps the initial state untouched", func() {
			sys := triangle()
			sys.Particles[0].Force = physics.V(7, 8, 9)
			want := sys.Clone()

			sim, err := dynamo.New(params(1, 1))
			Expect(err).NotTo(HaveOccurred())
			rec := &recorder{}
			sim.AddSink(rec)
			Expect(sim.Initialize(sys)).To(Succeed())
			_, err = sim.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.states[0]).To(Equal(want))
		})

		It("dumps the state after forces for that state have been applied", func() {
			p := params(5, 1)
			sim, err := dynamo.New(p)
			Expect(err).NotTo(HaveOccurred())
			rec := &recorder{}
			sim.AddSink(rec)

			manual := triangle()
			Expect(sim.Initialize(triangle())).To(Succeed())
			_, err = sim.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			grav := physics.NewGravity(p.G, p.Softening)
			integ := physics.NewSymplecticEuler()
			for step := 1; step <= p.Steps; step++ {
				Expect(grav.Apply(manual)).To(Succeed())
				integ.Step(manual, p.Dt)
				Expect(rec.states[step]).To(Equal(manual), "step %d", step)
			}
		})

		It("aborts on a sink failure", func() {
			sim, err := dynamo.New(params(10, 2))
			Expect(err).NotTo(HaveOccurred())
			boom := errors.New("disk full")
			sim.AddSink(dynamo.SinkFunc(func(step int, s *physics.System) error {
				if step == 4 {
					return boom
				}
				return nil
			}))
			Expect(sim.Initialize(triangle())).To(Succeed())

			_, err = sim.Run(context.Background())
			Expect(err).To(MatchError(boom))
			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(4))
		})
	})

	Describe("cancellation", func() {
		It("stops when the context is canceled", func() {
			sim, err := dynamo.New(params(1000, 1))
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			sim.AddSink(dynamo.SinkFunc(func(step int, s *physics.System) error {
				if step == 5 {
					cancel()
				}
				return nil
			}))
			Expect(sim.Initialize(triangle())).To(Succeed())

			_, err = sim.Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrCanceled))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(sim.StepCount()).To(Equal(5))
		})
	})

	Describe("metrics", func() {
		It("observes every dump and reports conservation", func() {
			sim, err := dynamo.New(params(100, 10))
			Expect(err).NotTo(HaveOccurred())
			samples := metrics.NewSamples()
			sim.AddMetric(samples)
			for _, m := range metrics.Defaults(sim.Gravity()) {
				sim.AddMetric(m)
			}
			Expect(sim.Initialize(triangle())).To(Succeed())

			res, err := sim.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKeyWithValue("samples", 11.0))
			Expect(res.Metrics).To(HaveKeyWithValue("stability", 1.0))
			Expect(res.Metrics["momentum_drift"]).To(BeNumerically("<", 1e-12))
			Expect(res.MomentumDrift).To(BeNumerically("<", 1e-12))
			Expect(res.Metrics["angular_momentum_drift"]).To(BeNumerically("<", 1e-10))
			Expect(res.EnergyDrift).To(BeNumerically("<", 0.1))
		})
	})

	Describe("singular pairs", func() {
		It("propagates non-finite state and reports it as unstable", func() {
			p := params(4, 1)
			p.Softening = 0
			sim, err := dynamo.New(p)
			Expect(err).NotTo(HaveOccurred())
			stability := metrics.NewStability()
			sim.AddMetric(stability)
			rec := &recorder{}
			sim.AddSink(rec)
			Expect(sim.Initialize(physics.NewSystem(
				physics.Particle{Mass: 1, Pos: physics.V(1, 1, 0)},
				physics.Particle{Mass: 1, Pos: physics.V(1, 1, 0)},
			))).To(Succeed())

			res, err := sim.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(4))
			Expect(rec.steps).To(Equal([]int{0, 1, 2, 3, 4}))

			Expect(math.IsNaN(rec.states[0].Particles[0].Pos[0])).To(BeFalse())
			Expect(math.IsNaN(rec.states[1].Particles[0].Pos[0])).To(BeTrue())
			Expect(res.Metrics["stability"]).To(BeNumerically("<", 1))
			Expect(res.Metrics["stability"]).To(BeNumerically("~", 0.2, 1e-12))
			Expect(math.IsNaN(res.EnergyDrift)).To(BeTrue())
		})
	})

	Describe("determinism", func() {
		It("writes byte-identical output for identical seeds", func() {
			p := dynamo.DefaultParams()
			p.Dt = 3600
			p.Steps = 50
			p.DumpEvery = 5

			src := initial.Random{N: 12, Seed: 99, Ranges: initial.DefaultRanges()}
			first := runToBuffer(p, src)
			second := runToBuffer(p, src)
			Expect(first).NotTo(BeEmpty())
			Expect(second).To(Equal(first))

			other := runToBuffer(p, initial.Random{N: 12, Seed: 100, Ranges: initial.DefaultRanges()})
			Expect(other).NotTo(Equal(first))
		})

		It("round-trips a dumped state through the snapshot initializer", func() {
			p := dynamo.DefaultParams()
			p.Dt = 3600
			p.Steps = 3
			p.DumpEvery = 3
			out := runToBuffer(p, initial.Preset{Name: "sun-earth"})

			frames, err := snapshot.ReadAll(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(frames).To(HaveLen(2))

			var buf bytes.Buffer
			w := snapshot.NewWriter(&buf)
			Expect(w.Dump(0, frames[1].System)).To(Succeed())
			Expect(w.Flush()).To(Succeed())
			lines := bytes.SplitAfter(out, []byte("\n"))
			Expect(buf.Bytes()).To(Equal(lines[1]))
		})
	})

	Describe("parallel force kernel", func() {
		It("agrees with the serial pair loop", func() {
			serial := dynamo.DefaultParams()
			serial.Dt = 3600
			serial.Steps = 20
			serial.DumpEvery = 20
			parallel := serial
			parallel.Workers = 4

			src := initial.Random{N: 64, Seed: 5, Ranges: initial.DefaultRanges()}
			a, err := src.Load()
			Expect(err).NotTo(HaveOccurred())
			b, err := src.Load()
			Expect(err).NotTo(HaveOccurred())

			for _, pair := range []struct {
				p   dynamo.Params
				sys *physics.System
			}{{serial, a}, {parallel, b}} {
				sim, err := dynamo.New(pair.p)
				Expect(err).NotTo(HaveOccurred())
				Expect(sim.Initialize(pair.sys)).To(Succeed())
				_, err = sim.Run(context.Background())
				Expect(err).NotTo(HaveOccurred())
			}

			for i := range a.Particles {
				d := a.Particles[i].Pos.Sub(b.Particles[i].Pos).Len()
				Expect(d / a.Particles[i].Pos.Len()).To(BeNumerically("<", 1e-9))
			}
		})
	})

	Describe("Sun-Earth-Moon year", func() {
		It("brings Earth back near its starting point", func() {
			sys, err := initial.Preset{Name: "sun-earth-moon"}.Load()
			Expect(err).NotTo(HaveOccurred())
			start := sys.Particles[1].Pos

			p := dynamo.DefaultParams()
			p.Dt = 3600
			p.Steps = 8760
			p.DumpEvery = 24

			sim, err := dynamo.New(p)
			Expect(err).NotTo(HaveOccurred())
			rec := &recorder{}
			sim.AddSink(rec)
			Expect(sim.Initialize(sys)).To(Succeed())

			res, err := sim.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Dumps).To(Equal(366))

			radius := start.Len()
			end := sys.Particles[1].Pos
			Expect(end.Sub(start).Len() / radius).To(BeNumerically("<", 0.02))

			// Half a year in, Earth is on the far side of the Sun.
			mid := rec.states[183].Particles[1].Pos
			Expect(mid[0]).To(BeNumerically("<", -0.9*radius))

			// The Moon stays bound to Earth.
			for _, st := range rec.states {
				sep := st.Particles[2].Pos.Sub(st.Particles[1].Pos).Len()
				Expect(sep).To(BeNumerically("<", 2*initial.MoonOrbit))
			}
			Expect(res.EnergyDrift).To(BeNumerically("<", 1e-3))
		})
	})
})
