// Package physics holds the gravitational N-body core.
//
//   - [System]: ordered, fixed-size particle store mutated in place
//   - [Gravity]: softened pairwise Newtonian force engine
//   - [SymplecticEuler]: semi-implicit Euler integrator
//
// Forces are computed pair by pair in index order and applied to both
// particles of a pair with opposite signs, so total momentum is conserved to
// rounding error.
//
// # Softening
//
// The squared softening length is added to every squared separation:
//
//	r2 := |pos[j]-pos[i]|² + softening²
//
// With softening 0 two coincident particles produce Inf/NaN forces. Supplying
// physically sane input is the caller's job.
//
// # Example
//
//	sys := physics.NewSystem(sun, earth)
//	grav := physics.NewGravity(physics.DefaultG, physics.DefaultSoftening)
//	integ := physics.NewSymplecticEuler()
//	for i := 0; i < steps; i++ {
//	    grav.Apply(sys)
//	    integ.Step(sys, dt)
//	}
package physics
