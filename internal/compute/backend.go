package compute

import (
	"errors"
	"fmt"
	"runtime"
)

var ErrShape = errors.New("compute: positions, masses and output lengths disagree")

// Backend computes softened pairwise gravity over flat buffers: pos and out
// hold x, y, z per particle, masses holds one value per particle.
type Backend interface {
	Name() string
	Forces(pos, masses []float64, g, soft2 float64, out []float64) error
}

// NewBackend returns the CPU backend with the given worker count. Zero or a
// negative count selects one worker per CPU.
func NewBackend(workers int) Backend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return NewCPUBackend(workers)
}

func checkShape(pos, masses, out []float64) error {
	n := len(masses)
	if len(pos) != 3*n || len(out) != 3*n {
		return fmt.Errorf("%w: %d positions, %d masses, %d outputs", ErrShape, len(pos), n, len(out))
	}
	return nil
}
