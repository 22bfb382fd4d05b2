// Package initial builds the particle store a run starts from.
//
// A run selects exactly one [Source]:
//
//   - [Random]: N particles drawn from uniform ranges with a fixed seed
//   - [Preset]: a named, physically realistic configuration
//   - [Snapshot]: the first line of a previously written dump file
//
// [Parse] resolves the operator's selector string into one of these once, at
// configuration time.
package initial

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/snapshot"
)

var (
	ErrInvalidCount  = errors.New("initial: particle count must be positive")
	ErrUnknownPreset = errors.New("initial: unknown preset")
	ErrEmptySelector = errors.New("initial: empty selector")
)

// Source produces a freshly allocated particle store.
type Source interface {
	Load() (*physics.System, error)
	String() string
}

// Parse maps a selector to a Source: a preset name selects that preset, an
// integer selects random synthesis with that many particles, and anything else
// is taken as the path of a snapshot file.
func Parse(selector string, seed int64, ranges RandomRanges) (Source, error) {
	if selector == "" {
		return nil, ErrEmptySelector
	}
	if IsPreset(selector) {
		return Preset{Name: selector}, nil
	}
	if n, err := strconv.Atoi(selector); err == nil {
		if n <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
		}
		return Random{N: n, Seed: seed, Ranges: ranges}, nil
	}
	return Snapshot{Path: selector}, nil
}

// Snapshot loads the first line of a dump file.
type Snapshot struct {
	Path string
}

func (s Snapshot) Load() (*physics.System, error) {
	return snapshot.ReadFirstFile(s.Path)
}

func (s Snapshot) String() string { return "snapshot:" + s.Path }
