package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/logging"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/storage"
)

var (
	ErrEmptyScenario   = errors.New("automation: scenario has no runs")
	ErrUnknownPreset   = errors.New("automation: unknown run preset")
	ErrInvalidTrials   = errors.New("automation: trial count must be positive")
	ErrInvalidScenario = errors.New("automation: invalid scenario")
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun is one entry of a scenario. Its keys are the same as a config
// file, layered over the named preset (or the defaults when there is none).
type ScenarioRun struct {
	Name   string
	Preset string
	Config config.Config
}

func (r *ScenarioRun) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Name   string `yaml:"name"`
		Preset string `yaml:"preset"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if head.Preset != "" {
		cfg = config.GetPreset(head.Preset)
		if cfg == nil {
			return fmt.Errorf("%w: %q", ErrUnknownPreset, head.Preset)
		}
	}
	if err := node.Decode(cfg); err != nil {
		return err
	}

	r.Name = head.Name
	r.Preset = head.Preset
	r.Config = *cfg
	return nil
}

func (r ScenarioRun) label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Config.Init
}

// LoadScenario loads a scenario from a YAML file and validates every run.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if len(s.Runs) == 0 {
		return ErrEmptyScenario
	}
	for i, run := range s.Runs {
		if err := run.Config.Validate(); err != nil {
			return fmt.Errorf("run %d (%s): %w", i+1, run.label(), err)
		}
	}
	return nil
}

// LoadInitial resolves the init selector of cfg and loads the store.
func LoadInitial(cfg *config.Config) (*physics.System, error) {
	src, err := cfg.Source()
	if err != nil {
		return nil, err
	}
	return src.Load()
}

// SimulateSystem runs an already loaded store with the parameters of cfg.
func SimulateSystem(ctx context.Context, cfg *config.Config, sys *physics.System, log logging.Logger, sinks ...dynamo.Sink) (*dynamo.Result, error) {
	sim, err := dynamo.New(cfg.Params())
	if err != nil {
		return nil, err
	}
	sim.SetLogger(log)
	for _, m := range metrics.Defaults(sim.Gravity()) {
		sim.AddMetric(m)
	}
	for _, k := range sinks {
		sim.AddSink(k)
	}
	if err := sim.Initialize(sys); err != nil {
		return nil, err
	}
	return sim.Run(ctx)
}

// RunScenario executes the runs in order, saving each one to the store.
// It stops at the first failing run and returns the runs completed so far.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, log logging.Logger) ([]storage.RunMetadata, error) {
	if log == nil {
		log = logging.NoOp{}
	}
	results := make([]storage.RunMetadata, 0, len(scenario.Runs))

	for i, step := range scenario.Runs {
		cfg := step.Config
		log.Infof("running %d/%d: %s", i+1, len(scenario.Runs), step.label())

		sys, err := LoadInitial(&cfg)
		if err != nil {
			return results, fmt.Errorf("run %d (%s): %w", i+1, step.label(), err)
		}
		run, err := store.NewRun(cfg.Init)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}

		res, err := SimulateSystem(ctx, &cfg, sys, log, run)
		if err != nil {
			run.Close()
			return results, fmt.Errorf("run %d (%s): %w", i+1, step.label(), err)
		}

		meta := storage.NewMetadata(cfg.Init, sys.Len(), cfg.Params(), res)
		if err := run.Finish(meta); err != nil {
			return results, fmt.Errorf("run %d save: %w", i+1, err)
		}
		meta.ID = run.ID
		results = append(results, meta)
	}

	return results, nil
}

// MonteCarloConfig repeats a base configuration with randomly displaced
// initial positions.
type MonteCarloConfig struct {
	Base config.Config
	// Perturbation is the relative position displacement per component.
	Perturbation float64
	Trials       int
	Seed         int64
	// MaxDrift is the relative energy drift above which a trial counts as
	// unstable.
	MaxDrift float64
	Parallel int
}

type MonteCarloResult struct {
	Trial         int
	EnergyDrift   float64
	MomentumDrift float64
	Stable        bool
}

func perturb(sys *physics.System, rng *rand.Rand, eps float64) {
	for i := range sys.Particles {
		p := &sys.Particles[i]
		scale := eps * p.Pos.Len()
		for k := 0; k < 3; k++ {
			p.Pos[k] += (rng.Float64() - 0.5) * 2 * scale
		}
	}
}

// RunMonteCarlo executes the trials concurrently. Results are in trial order
// and depend only on the configuration, never on scheduling.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig) ([]MonteCarloResult, error) {
	if mc.Trials <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrials, mc.Trials)
	}
	if err := mc.Base.Validate(); err != nil {
		return nil, err
	}
	src, err := mc.Base.Source()
	if err != nil {
		return nil, err
	}

	maxDrift := mc.MaxDrift
	if maxDrift <= 0 {
		maxDrift = 0.1
	}

	results := make([]MonteCarloResult, mc.Trials)
	g, ctx := errgroup.WithContext(ctx)
	if mc.Parallel > 0 {
		g.SetLimit(mc.Parallel)
	}

	for trial := 0; trial < mc.Trials; trial++ {
		trial := trial
		g.Go(func() error {
			sys, err := src.Load()
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(mc.Seed + int64(trial)))
			perturb(sys, rng, mc.Perturbation)

			sim, err := dynamo.New(mc.Base.Params())
			if err != nil {
				return err
			}
			stability := metrics.NewStability()
			sim.AddMetric(stability)
			if err := sim.Initialize(sys); err != nil {
				return err
			}
			res, err := sim.Run(ctx)
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}

			drift := res.EnergyDrift
			results[trial] = MonteCarloResult{
				Trial:         trial,
				EnergyDrift:   drift,
				MomentumDrift: res.MomentumDrift,
				Stable:        stability.Value() == 1 && !math.IsNaN(drift) && drift <= maxDrift,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
