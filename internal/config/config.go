package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/initial"
	"github.com/san-kum/nbodysim/internal/physics"
)

const (
	DefaultInit      = "sun-earth-moon"
	DefaultDt        = 3600.0
	DefaultSteps     = 24
	DefaultDumpEvery = 1
	DefaultSeed      = 42
	DefaultOut       = "output.tsv"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Init      string               `yaml:"init"`
	Dt        float64              `yaml:"dt"`
	Steps     int                  `yaml:"steps"`
	DumpEvery int                  `yaml:"dump_every"`
	Softening float64              `yaml:"softening"`
	G         float64              `yaml:"g"`
	Seed      int64                `yaml:"seed"`
	Workers   int                  `yaml:"workers,omitempty"`
	Out       string               `yaml:"out"`
	Random    initial.RandomRanges `yaml:"random"`
}

func DefaultConfig() *Config {
	return &Config{
		Init:      DefaultInit,
		Dt:        DefaultDt,
		Steps:     DefaultSteps,
		DumpEvery: DefaultDumpEvery,
		Softening: physics.DefaultSoftening,
		G:         physics.DefaultG,
		Seed:      DefaultSeed,
		Out:       DefaultOut,
		Random:    initial.DefaultRanges(),
	}
}

// Load reads a YAML file on top of DefaultConfig, so omitted keys keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Params() dynamo.Params {
	return dynamo.Params{
		G:         c.G,
		Softening: c.Softening,
		Dt:        c.Dt,
		Steps:     c.Steps,
		DumpEvery: c.DumpEvery,
		Seed:      c.Seed,
		Workers:   c.Workers,
	}
}

// Source resolves the init selector.
func (c *Config) Source() (initial.Source, error) {
	src, err := initial.Parse(c.Init, c.Seed, c.Random)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return src, nil
}

func (c *Config) Validate() error {
	if c.Init == "" {
		return fmt.Errorf("%w: init selector is empty", ErrInvalid)
	}
	if c.Out == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalid)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Random.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	_, err := c.Source()
	return err
}
