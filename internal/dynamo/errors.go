package dynamo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams indicates a parameter set that cannot start a run.
	ErrInvalidParams = errors.New("dynamo: invalid simulation parameters")

	// ErrEmptySystem indicates an initializer produced no particles.
	ErrEmptySystem = errors.New("dynamo: particle store is empty")

	// ErrNotInitialized indicates a run was started before a store was loaded.
	ErrNotInitialized = errors.New("dynamo: simulator has no particle store")

	// ErrPhase indicates an operation not allowed in the current phase.
	ErrPhase = errors.New("dynamo: operation not allowed in current phase")

	// ErrCanceled indicates the run was interrupted from outside.
	ErrCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError attaches the step at which a run failed.
type SimulationError struct {
	Step    int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
