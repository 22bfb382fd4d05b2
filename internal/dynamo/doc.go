// Package dynamo drives N-body runs.
//
// A [Simulator] owns the particle store for the whole run and moves through
// four phases:
//
//	Uninitialized -> Initialized -> Running -> Finished
//
// [Simulator.Initialize] takes the store built by an initializer.
// [Simulator.Run] emits the step-0 state, then for every step computes forces,
// integrates, and emits the post-step state when the step is a multiple of
// the dump interval. A dumped state never mixes old and new values.
//
// # Example
//
//	s, _ := dynamo.New(params)
//	s.AddSink(snapshot.NewWriter(f))
//	_ = s.Initialize(sys)
//	result, err := s.Run(ctx)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. The store belongs to the goroutine
// calling Run or Step.
package dynamo
